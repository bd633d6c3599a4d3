package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
)

// AnthropicBackend sends the instruction as the system field and the
// transcript as the single user message.
type AnthropicBackend struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	baseURL   string
	transport *CapturingTransport
	dumpDir   string
}

// NewAnthropicBackend creates an Anthropic backend for apiKey.
// SDK retries are disabled: one invocation is one request.
func NewAnthropicBackend(apiKey string, opts Options) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	httpClient, transport := opts.httpClient()
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	baseURL := opts.baseURL(notes.ProviderAnthropic)
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	return &AnthropicBackend{
		client:    &client,
		model:     AnthropicModel,
		maxTokens: AnthropicMaxTokens,
		baseURL:   baseURL,
		transport: transport,
		dumpDir:   opts.DumpDir,
	}, nil
}

// Complete returns the text of the first content block, or "" when that
// block is not a text block. A reply without blocks is an error.
func (b *AnthropicBackend) Complete(ctx context.Context, instruction, text string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: int64(b.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: instruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}

	L_debug("llm: anthropic request", "model", b.model, "maxTokens", b.maxTokens)
	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		writeErrorDump(b.dumpDir, notes.ProviderAnthropic, b.model, b.baseURL, err, b.transport)
		return "", err
	}

	if len(msg.Content) == 0 {
		return "", fmt.Errorf("anthropic response has no content blocks")
	}
	switch block := msg.Content[0].AsAny().(type) {
	case anthropic.TextBlock:
		return block.Text, nil
	default:
		L_debug("llm: anthropic first block is not text", "type", msg.Content[0].Type)
		return "", nil
	}
}
