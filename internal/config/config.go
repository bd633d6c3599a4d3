package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/google/uuid"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
	"github.com/roelfdiedericks/mentalnote/internal/paths"
)

// SpeechWhisper is the only transcription method available outside a browser.
const SpeechWhisper = "whisper"

// Settings is the persisted mentalnote configuration.
type Settings struct {
	OpenAIKey        string `json:"openaiKey" yaml:"openaiKey"`
	AnthropicKey     string `json:"anthropicKey" yaml:"anthropicKey"`
	GeminiKey        string `json:"geminiKey" yaml:"geminiKey"`
	NotionToken      string `json:"notionToken" yaml:"notionToken"`
	NotionDatabaseID string `json:"notionDatabaseId" yaml:"notionDatabaseId"`
	SystemPrompt     string `json:"systemPrompt" yaml:"systemPrompt"`
	DefaultProvider  string `json:"defaultProvider" yaml:"defaultProvider"`
	SpeechMethod     string `json:"speechMethod" yaml:"speechMethod"`
	OutputLanguage   string `json:"outputLanguage" yaml:"outputLanguage"`
	WhisperBaseURL   string `json:"whisperBaseURL,omitempty" yaml:"whisperBaseURL,omitempty"` // any Whisper-compatible endpoint
}

// Defaults returns the values used for empty settings fields.
func Defaults() Settings {
	return Settings{
		SystemPrompt:    notes.DefaultSystemPrompt,
		DefaultProvider: string(notes.ProviderOpenAI),
		SpeechMethod:    SpeechWhisper,
		OutputLanguage:  notes.DefaultLanguage,
	}
}

// Load reads settings from path. An empty path resolves through
// paths.ConfigPath; a missing file yields defaults.
func Load(path string) (*Settings, string, error) {
	var err error
	if path == "" {
		path, err = paths.ConfigPath()
	} else {
		path, err = paths.ExpandTilde(path)
	}
	if err != nil {
		return nil, "", err
	}

	s := &Settings{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, s); err != nil {
				return nil, path, fmt.Errorf("parse %s: %w", path, err)
			}
			L_debug("config: loaded", "path", path)
		case errors.Is(err, os.ErrNotExist):
			L_debug("config: not found, using defaults", "path", path)
		default:
			return nil, path, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if path == "" {
		p, err := paths.DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	if err := s.ApplyDefaults(); err != nil {
		return nil, path, err
	}
	for _, w := range s.Validate() {
		L_warn("config: " + w)
	}
	return s, path, nil
}

// ApplyDefaults fills empty fields from Defaults. Set fields are kept.
func (s *Settings) ApplyDefaults() error {
	if err := mergo.Merge(s, Defaults()); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return nil
}

// Save writes settings atomically, keeping rotated backups.
func (s *Settings) Save(path string) error {
	return BackupAndWriteJSON(path, s, DefaultBackupCount)
}

// Validate returns human-readable warnings. Nothing here is fatal; values
// are always used verbatim.
func (s *Settings) Validate() []string {
	var warnings []string
	if s.DefaultProvider != "" {
		if _, err := notes.ParseProvider(s.DefaultProvider); err != nil {
			warnings = append(warnings, fmt.Sprintf("defaultProvider %q is not one of %s, processing will fail", s.DefaultProvider, providerList()))
		}
	}
	if s.SpeechMethod != SpeechWhisper {
		warnings = append(warnings, fmt.Sprintf("speechMethod %q is not available here, whisper is used", s.SpeechMethod))
	}
	if s.NotionDatabaseID != "" {
		if _, err := uuid.Parse(s.NotionDatabaseID); err != nil {
			warnings = append(warnings, fmt.Sprintf("notionDatabaseId %q does not look like a Notion database id", s.NotionDatabaseID))
		}
	}
	return warnings
}

func providerList() string {
	names := make([]string, len(notes.Providers))
	for i, p := range notes.Providers {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Provider maps DefaultProvider to a provider tag. Empty means OpenAI; any
// other value is passed through so the dispatcher can reject unknown tags.
func (s *Settings) Provider() notes.Provider {
	name := strings.ToLower(strings.TrimSpace(s.DefaultProvider))
	if name == "" {
		return notes.ProviderOpenAI
	}
	return notes.Provider(name)
}

// APIKeyFor returns the stored key for provider. Any tag other than openai
// or anthropic gets the Gemini key, so an unknown provider with a key set
// is reported as unsupported rather than as a missing key.
func (s *Settings) APIKeyFor(p notes.Provider) string {
	switch p {
	case notes.ProviderOpenAI:
		return s.OpenAIKey
	case notes.ProviderAnthropic:
		return s.AnthropicKey
	default:
		return s.GeminiKey
	}
}

// HasAnyLLMKey reports whether at least one provider key is set.
func (s *Settings) HasAnyLLMKey() bool {
	return s.OpenAIKey != "" || s.AnthropicKey != "" || s.GeminiKey != ""
}

// HasNotion reports whether saving to Notion is configured.
func (s *Settings) HasNotion() bool {
	return s.NotionToken != "" && s.NotionDatabaseID != ""
}

// Redacted returns a copy safe to print.
func (s *Settings) Redacted() Settings {
	r := *s
	r.OpenAIKey = Redact(r.OpenAIKey)
	r.AnthropicKey = Redact(r.AnthropicKey)
	r.GeminiKey = Redact(r.GeminiKey)
	r.NotionToken = Redact(r.NotionToken)
	return r
}
