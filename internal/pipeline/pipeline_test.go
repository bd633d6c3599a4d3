package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/roelfdiedericks/mentalnote/internal/config"
	"github.com/roelfdiedericks/mentalnote/internal/metrics"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"github.com/roelfdiedericks/mentalnote/internal/notion"
)

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filePath string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeProcessor struct {
	result notes.ProcessResult
	err    error
	got    []notes.ProcessRequest
}

func (f *fakeProcessor) ProcessNote(ctx context.Context, req notes.ProcessRequest) (notes.ProcessResult, error) {
	f.got = append(f.got, req)
	return f.result, f.err
}

type fakeSaver struct {
	err   error
	db    string
	pages []notion.Page
}

func (f *fakeSaver) CreatePage(ctx context.Context, databaseID string, page notion.Page) (*notion.CreatedPage, error) {
	f.db = databaseID
	f.pages = append(f.pages, page)
	if f.err != nil {
		return nil, f.err
	}
	return &notion.CreatedPage{ID: "p1", URL: "https://notion.so/p1"}, nil
}

func settings() *config.Settings {
	s := &config.Settings{
		OpenAIKey:        "sk-openai",
		AnthropicKey:     "sk-ant",
		GeminiKey:        "gm",
		NotionToken:      "secret",
		NotionDatabaseID: "db-1",
	}
	s.ApplyDefaults()
	return s
}

func TestProcessUsesSettings(t *testing.T) {
	tests := []struct {
		defaultProvider string
		wantProvider    notes.Provider
		wantKey         string
	}{
		{"openai", notes.ProviderOpenAI, "sk-openai"},
		{"anthropic", notes.ProviderAnthropic, "sk-ant"},
		{"gemini", notes.ProviderGemini, "gm"},
		{"", notes.ProviderOpenAI, "sk-openai"},
	}
	for _, tt := range tests {
		t.Run(tt.defaultProvider, func(t *testing.T) {
			s := settings()
			s.DefaultProvider = tt.defaultProvider
			proc := &fakeProcessor{result: notes.ProcessResult{Title: "T"}}
			p := &Pipeline{Processor: proc, Settings: s}

			if _, err := p.Process(context.Background(), "hello", Overrides{}); err != nil {
				t.Fatal(err)
			}
			req := proc.got[0]
			if req.Provider != tt.wantProvider || req.APIKey != tt.wantKey {
				t.Errorf("provider=%s key=%s, want %s %s", req.Provider, req.APIKey, tt.wantProvider, tt.wantKey)
			}
			if req.SystemPrompt != notes.DefaultSystemPrompt || req.OutputLanguage != notes.DefaultLanguage {
				t.Errorf("prompt/language not defaulted: %+v", req)
			}
		})
	}
}

func TestProcessUnknownDefaultProvider(t *testing.T) {
	var built []notes.Provider
	factory := func(p notes.Provider, apiKey string) (notes.Backend, error) {
		built = append(built, p)
		return nil, errors.New("should not be built")
	}
	s := &config.Settings{DefaultProvider: "mistral", GeminiKey: "g-key"}
	p := &Pipeline{Processor: notes.NewDispatcher(factory), Settings: s}

	_, err := p.Process(context.Background(), "hello", Overrides{})
	var unsupported notes.ErrUnsupportedProvider
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want ErrUnsupportedProvider", err)
	}
	if unsupported.Provider != "mistral" {
		t.Errorf("provider = %q", unsupported.Provider)
	}
	if len(built) != 0 {
		t.Errorf("backends built: %v", built)
	}
}

func TestProcessOverrides(t *testing.T) {
	proc := &fakeProcessor{}
	p := &Pipeline{Processor: proc, Settings: settings()}
	_, err := p.Process(context.Background(), "hola", Overrides{
		Provider:     notes.ProviderAnthropic,
		SystemPrompt: "Be brief.",
		Language:     "Spanish",
	})
	if err != nil {
		t.Fatal(err)
	}
	req := proc.got[0]
	if req.Provider != notes.ProviderAnthropic || req.APIKey != "sk-ant" {
		t.Errorf("override provider not used: %s", req.Provider)
	}
	if req.SystemPrompt != "Be brief." || req.OutputLanguage != "Spanish" {
		t.Errorf("overrides not applied: %+v", req)
	}
}

func TestProcessGuards(t *testing.T) {
	proc := &fakeProcessor{}
	p := &Pipeline{Processor: proc, Settings: &config.Settings{}}
	if _, err := p.Process(context.Background(), "text", Overrides{}); !errors.Is(err, ErrNoAPIKeys) {
		t.Errorf("err = %v, want ErrNoAPIKeys", err)
	}

	p.Settings = settings()
	if _, err := p.Process(context.Background(), "  \n", Overrides{}); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("err = %v, want ErrEmptyTranscript", err)
	}
	if len(proc.got) != 0 {
		t.Errorf("processor called %d times", len(proc.got))
	}
}

func TestProcessPropagatesErrors(t *testing.T) {
	callErr := notes.ErrProviderCallFailed{Provider: notes.ProviderOpenAI, Err: errors.New("boom")}
	p := &Pipeline{Processor: &fakeProcessor{err: callErr}, Settings: settings()}
	_, err := p.Process(context.Background(), "text", Overrides{})
	var target notes.ErrProviderCallFailed
	if !errors.As(err, &target) {
		t.Errorf("err = %v, want ErrProviderCallFailed", err)
	}
}

func TestSave(t *testing.T) {
	saver := &fakeSaver{}
	p := &Pipeline{Saver: saver, Settings: settings()}
	url, err := p.Save(context.Background(), "raw words", notes.ProcessResult{
		Content:  "- point",
		Category: "work",
		Tags:     []string{"a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://notion.so/p1" {
		t.Errorf("url = %q", url)
	}
	if saver.db != "db-1" {
		t.Errorf("database = %q", saver.db)
	}
	page := saver.pages[0]
	if page.Title != notes.DefaultTitle {
		t.Errorf("Title = %q, want default", page.Title)
	}
	if page.Transcript != "raw words" || page.Content != "- point" || page.Category != "work" {
		t.Errorf("page = %+v", page)
	}
}

func TestSaveGuards(t *testing.T) {
	p := &Pipeline{Settings: settings()}
	if _, err := p.Save(context.Background(), "", notes.ProcessResult{}); !errors.Is(err, ErrNotionNotConfigured) {
		t.Errorf("nil saver: err = %v", err)
	}

	s := settings()
	s.NotionDatabaseID = ""
	saver := &fakeSaver{}
	p = &Pipeline{Saver: saver, Settings: s}
	if _, err := p.Save(context.Background(), "", notes.ProcessResult{}); !errors.Is(err, ErrNotionNotConfigured) {
		t.Errorf("no db: err = %v", err)
	}
	if len(saver.pages) != 0 {
		t.Error("saver should not be called")
	}

	p = &Pipeline{Saver: &fakeSaver{err: errors.New("Notion API error: 401 - unauthorized")}, Settings: settings()}
	if _, err := p.Save(context.Background(), "", notes.ProcessResult{Title: "x"}); err == nil {
		t.Error("expected save error")
	}
}

func TestRunAudio(t *testing.T) {
	tr := &fakeTranscriber{text: "buy milk"}
	proc := &fakeProcessor{result: notes.ProcessResult{Title: "Groceries", Content: "- milk"}}
	saver := &fakeSaver{}
	p := &Pipeline{Transcriber: tr, Processor: proc, Saver: saver, Settings: settings()}

	note, err := p.RunAudio(context.Background(), "note.webm", Overrides{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if note.Transcript != "buy milk" || note.Result.Title != "Groceries" || note.PageURL != "https://notion.so/p1" {
		t.Errorf("note = %+v", note)
	}
	if tr.calls != 1 || len(proc.got) != 1 || len(saver.pages) != 1 {
		t.Errorf("calls: transcribe=%d process=%d save=%d", tr.calls, len(proc.got), len(saver.pages))
	}
	if proc.got[0].Text != "buy milk" {
		t.Errorf("processed %q", proc.got[0].Text)
	}
}

func TestRunAudioKeepsPartialResults(t *testing.T) {
	p := &Pipeline{
		Transcriber: &fakeTranscriber{text: "hello"},
		Processor:   &fakeProcessor{err: errors.New("down")},
		Settings:    settings(),
	}
	note, err := p.RunAudio(context.Background(), "a.ogg", Overrides{}, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if note == nil || note.Transcript != "hello" {
		t.Errorf("transcript lost: %+v", note)
	}

	p.Processor = &fakeProcessor{result: notes.ProcessResult{Title: "T"}}
	p.Saver = &fakeSaver{err: errors.New("nope")}
	note, err = p.RunAudio(context.Background(), "a.ogg", Overrides{}, true)
	if err == nil {
		t.Fatal("expected save error")
	}
	if note.Result.Title != "T" || note.PageURL != "" {
		t.Errorf("note = %+v", note)
	}
}

func TestRunWithoutSave(t *testing.T) {
	saver := &fakeSaver{}
	p := &Pipeline{Processor: &fakeProcessor{}, Saver: saver, Settings: settings()}
	if _, err := p.Run(context.Background(), "text", Overrides{}, false); err != nil {
		t.Fatal(err)
	}
	if len(saver.pages) != 0 {
		t.Error("saved without being asked")
	}
}

func TestTranscribeNotConfigured(t *testing.T) {
	p := &Pipeline{Settings: settings()}
	if _, err := p.Transcribe(context.Background(), "x.webm"); err == nil {
		t.Error("expected error")
	}
}

func TestMetricsRecorded(t *testing.T) {
	m := metrics.New()
	p := &Pipeline{
		Transcriber: &fakeTranscriber{text: "hi"},
		Processor:   &fakeProcessor{result: notes.ProcessResult{Title: "T"}},
		Saver:       &fakeSaver{err: errors.New("Notion API error: 401 - unauthorized")},
		Settings:    settings(),
		Metrics:     m,
	}
	p.RunAudio(context.Background(), "a.wav", Overrides{Provider: notes.ProviderGemini}, true)

	stages := map[string]metrics.StageSnapshot{}
	for _, s := range m.Snapshot() {
		stages[s.Path] = s
	}
	if s := stages["stt/transcribe"]; s.Outcomes == nil || s.Outcomes.Success != 1 {
		t.Errorf("stt = %+v", s)
	}
	if s := stages["llm/gemini"]; s.Outcomes == nil || s.Outcomes.Success != 1 || s.Timing.Count != 1 {
		t.Errorf("llm = %+v", s)
	}
	if s := stages["notion/save"]; s.Outcomes == nil || s.Outcomes.FailureReasons["auth"] != 1 {
		t.Errorf("notion = %+v", s)
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{notes.ErrMissingCredential{Provider: notes.ProviderOpenAI}, "missing_credential"},
		{notes.ErrUnsupportedProvider{Provider: "x"}, "unsupported_provider"},
		{errors.New("429 Too Many Requests"), "rate_limit"},
		{errors.New("something odd"), "unknown"},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
