// Package pipeline runs a note end to end: transcribe, process, save.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roelfdiedericks/mentalnote/internal/config"
	"github.com/roelfdiedericks/mentalnote/internal/llm"
	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/metrics"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"github.com/roelfdiedericks/mentalnote/internal/notion"
)

// ErrNoAPIKeys is returned when processing is asked for with no LLM key set.
var ErrNoAPIKeys = errors.New("please configure API keys in settings")

// ErrEmptyTranscript is returned when there is no text to process.
var ErrEmptyTranscript = errors.New("nothing to process: transcript is empty")

// ErrNotionNotConfigured is returned when saving without Notion credentials.
var ErrNotionNotConfigured = errors.New("please configure Notion settings")

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// Processor turns a transcript into a structured note.
type Processor interface {
	ProcessNote(ctx context.Context, req notes.ProcessRequest) (notes.ProcessResult, error)
}

// Saver persists a note as a Notion page.
type Saver interface {
	CreatePage(ctx context.Context, databaseID string, page notion.Page) (*notion.CreatedPage, error)
}

// Note is everything produced for one recording.
type Note struct {
	Transcript string              `json:"transcript" yaml:"transcript"`
	Result     notes.ProcessResult `json:"result" yaml:"result"`
	PageURL    string              `json:"pageUrl,omitempty" yaml:"pageUrl,omitempty"`
}

// Overrides replace settings for a single run. Empty fields keep settings.
type Overrides struct {
	Provider     notes.Provider
	SystemPrompt string
	Language     string
}

// Pipeline runs each step in order, one call at a time.
type Pipeline struct {
	Transcriber Transcriber // nil disables audio input
	Processor   Processor
	Saver       Saver // nil disables saving
	Settings    *config.Settings
	Metrics     *metrics.Manager // nil records nothing
}

// failureReason buckets an error for metrics.
func failureReason(err error) string {
	var missing notes.ErrMissingCredential
	var unsupported notes.ErrUnsupportedProvider
	switch {
	case errors.As(err, &missing):
		return "missing_credential"
	case errors.As(err, &unsupported):
		return "unsupported_provider"
	}
	return string(llm.ClassifyError(err.Error()))
}

// Transcribe returns the transcript of an audio file.
func (p *Pipeline) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if p.Transcriber == nil {
		return "", fmt.Errorf("transcription is not configured: an OpenAI API key is needed for Whisper")
	}
	start := time.Now()
	text, err := p.Transcriber.Transcribe(ctx, audioPath)
	p.Metrics.Observe("stt", "transcribe", start, err, failureReason)
	if err != nil {
		return "", err
	}
	L_elapsed(start, "pipeline: transcribed", "file", audioPath, "length", len(text))
	return text, nil
}

// Process asks the configured provider to structure text.
func (p *Pipeline) Process(ctx context.Context, text string, o Overrides) (notes.ProcessResult, error) {
	if !p.Settings.HasAnyLLMKey() {
		return notes.ProcessResult{}, ErrNoAPIKeys
	}
	if strings.TrimSpace(text) == "" {
		return notes.ProcessResult{}, ErrEmptyTranscript
	}

	provider := o.Provider
	if provider == "" {
		provider = p.Settings.Provider()
	}
	prompt := o.SystemPrompt
	if prompt == "" {
		prompt = p.Settings.SystemPrompt
	}
	language := o.Language
	if language == "" {
		language = p.Settings.OutputLanguage
	}

	req := notes.ProcessRequest{
		Text:           text,
		Provider:       provider,
		APIKey:         p.Settings.APIKeyFor(provider),
		SystemPrompt:   prompt,
		OutputLanguage: language,
	}
	L_debug("pipeline: processing", "request", req)

	start := time.Now()
	result, err := p.Processor.ProcessNote(ctx, req)
	p.Metrics.Observe("llm", string(provider), start, err, failureReason)
	if err != nil {
		return notes.ProcessResult{}, err
	}
	L_elapsed(start, "pipeline: processed", "provider", provider, "category", result.Category)
	return result, nil
}

// Save writes the note to Notion and returns the page URL.
func (p *Pipeline) Save(ctx context.Context, transcript string, result notes.ProcessResult) (string, error) {
	if p.Saver == nil || !p.Settings.HasNotion() {
		return "", ErrNotionNotConfigured
	}

	title := result.Title
	if title == "" {
		title = notes.DefaultTitle
	}
	start := time.Now()
	page, err := p.Saver.CreatePage(ctx, p.Settings.NotionDatabaseID, notion.Page{
		Title:      title,
		Content:    result.Content,
		Transcript: transcript,
		Category:   result.Category,
		Tags:       result.Tags,
	})
	p.Metrics.Observe("notion", "save", start, err, failureReason)
	if err != nil {
		return "", fmt.Errorf("failed to save to Notion: %w", err)
	}
	return page.URL, nil
}

// Run processes text and optionally saves it.
func (p *Pipeline) Run(ctx context.Context, transcript string, o Overrides, save bool) (*Note, error) {
	result, err := p.Process(ctx, transcript, o)
	if err != nil {
		return nil, err
	}
	note := &Note{Transcript: transcript, Result: result}
	if save {
		url, err := p.Save(ctx, transcript, result)
		if err != nil {
			return note, err
		}
		note.PageURL = url
	}
	return note, nil
}

// RunAudio transcribes audioPath, then continues as Run.
func (p *Pipeline) RunAudio(ctx context.Context, audioPath string, o Overrides, save bool) (*Note, error) {
	transcript, err := p.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	note, err := p.Run(ctx, transcript, o, save)
	if note == nil {
		note = &Note{Transcript: transcript}
	}
	return note, err
}
