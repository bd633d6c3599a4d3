package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
)

// OpenAIBackend sends a two-message chat completion (system + user)
// to an OpenAI-compatible endpoint.
type OpenAIBackend struct {
	client    *openai.Client
	model     string
	baseURL   string
	transport *CapturingTransport
	dumpDir   string
}

// NewOpenAIBackend creates an OpenAI backend for apiKey.
func NewOpenAIBackend(apiKey string, opts Options) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	config := openai.DefaultConfig(apiKey)
	baseURL := opts.baseURL(notes.ProviderOpenAI)
	if baseURL != "" {
		// Ensure the URL ends with /v1 for OpenAI-compatible APIs
		if !strings.HasSuffix(baseURL, "/v1") && !strings.HasSuffix(baseURL, "/v1/") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		config.BaseURL = baseURL
	}

	httpClient, transport := opts.httpClient()
	config.HTTPClient = httpClient

	return &OpenAIBackend{
		client:    openai.NewClientWithConfig(config),
		model:     OpenAIModel,
		baseURL:   baseURL,
		transport: transport,
		dumpDir:   opts.DumpDir,
	}, nil
}

// Complete returns the first choice's message content, or "" when the
// reply has no choices.
func (b *OpenAIBackend) Complete(ctx context.Context, instruction, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	L_debug("llm: openai request", "model", b.model)
	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		writeErrorDump(b.dumpDir, notes.ProviderOpenAI, b.model, b.baseURL, err, b.transport)
		return "", err
	}

	if len(resp.Choices) == 0 {
		L_warn("llm: openai returned no choices")
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
