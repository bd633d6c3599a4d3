package llm

import (
	"context"
	"fmt"
	"net/http"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"google.golang.org/genai"
)

// GeminiBackend sends one generation request whose single user content
// holds the instruction and the transcript as two sequential parts.
type GeminiBackend struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	transport  *CapturingTransport
	dumpDir    string
}

// NewGeminiBackend creates a Gemini backend for apiKey.
func NewGeminiBackend(apiKey string, opts Options) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	httpClient, transport := opts.httpClient()
	return &GeminiBackend{
		apiKey:     apiKey,
		model:      GeminiModel,
		baseURL:    opts.baseURL(notes.ProviderGemini),
		httpClient: httpClient,
		transport:  transport,
		dumpDir:    opts.DumpDir,
	}, nil
}

// Complete returns the response text of the first candidate. Thought parts
// are not included.
func (b *GeminiBackend) Complete(ctx context.Context, instruction, text string) (string, error) {
	cfg := &genai.ClientConfig{
		APIKey:     b.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.httpClient,
	}
	if b.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: b.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromText(text),
		}, genai.RoleUser),
	}

	L_debug("llm: gemini request", "model", b.model)
	resp, err := client.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		writeErrorDump(b.dumpDir, notes.ProviderGemini, b.model, b.baseURL, err, b.transport)
		return "", err
	}
	return resp.Text(), nil
}
