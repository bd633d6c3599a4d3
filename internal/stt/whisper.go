package stt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
)

// WhisperConfig holds Whisper API configuration.
type WhisperConfig struct {
	APIKey  string
	BaseURL string // any Whisper-compatible endpoint, e.g. https://api.groq.com/openai/v1
	Model   string // "whisper-1"
	Timeout time.Duration
}

// WhisperProvider implements STT using OpenAI's Whisper API (or a compatible one).
type WhisperProvider struct {
	client *openai.Client
	model  string
}

// NewWhisperProvider creates a new Whisper STT provider.
func NewWhisperProvider(cfg WhisperConfig) (*WhisperProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	L_debug("stt: whisper provider initialized", "model", model, "custom endpoint", cfg.BaseURL != "")

	return &WhisperProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Transcribe uploads the audio file and returns the transcript. The
// language is left to auto-detection.
func (w *WhisperProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	info, err := Probe(filePath)
	if err != nil {
		return "", fmt.Errorf("error transcribing with Whisper: %w", err)
	}
	L_debug("stt: whisper transcribing", "file", filePath, "mime", info.MIME, "size", info.Size)

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filePath,
	})
	if err != nil {
		return "", fmt.Errorf("error transcribing with Whisper: %w", err)
	}

	L_elapsed(start, "stt: whisper transcription complete", "length", len(resp.Text))
	return resp.Text, nil
}

// Name returns the provider name.
func (w *WhisperProvider) Name() string {
	return "whisper"
}
