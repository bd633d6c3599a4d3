package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roelfdiedericks/mentalnote/internal/notes"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentalnote.json")
	s, got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	if s.DefaultProvider != "openai" || s.SpeechMethod != "whisper" || s.OutputLanguage != "English" {
		t.Errorf("defaults not applied: %+v", s)
	}
	if s.SystemPrompt != notes.DefaultSystemPrompt {
		t.Errorf("SystemPrompt = %q", s.SystemPrompt)
	}
}

func TestLoadKeepsSetValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentalnote.json")
	os.WriteFile(path, []byte(`{
		"anthropicKey": "sk-ant-123",
		"defaultProvider": "anthropic",
		"outputLanguage": "Spanish",
		"systemPrompt": ""
	}`), 0600)

	s, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.DefaultProvider != "anthropic" {
		t.Errorf("DefaultProvider = %q", s.DefaultProvider)
	}
	if s.OutputLanguage != "Spanish" {
		t.Errorf("OutputLanguage = %q", s.OutputLanguage)
	}
	if s.SystemPrompt != notes.DefaultSystemPrompt {
		t.Errorf("empty SystemPrompt should get the default, got %q", s.SystemPrompt)
	}
	if s.AnthropicKey != "sk-ant-123" {
		t.Errorf("AnthropicKey = %q", s.AnthropicKey)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentalnote.json")
	os.WriteFile(path, []byte(`{not json`), 0600)
	if _, _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTripAndBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "mentalnote.json")
	s := &Settings{OpenAIKey: "sk-1"}
	s.ApplyDefaults()

	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 600", perm)
	}
	if len(ListBackups(path)) != 0 {
		t.Error("first save should not create a backup")
	}

	s.OpenAIKey = "sk-2"
	s.Save(path)
	s.OpenAIKey = "sk-3"
	s.Save(path)

	backups := ListBackups(path)
	if len(backups) != 2 {
		t.Fatalf("backups = %d, want 2", len(backups))
	}

	loaded, _, _ := Load(path)
	if loaded.OpenAIKey != "sk-3" {
		t.Errorf("OpenAIKey = %q", loaded.OpenAIKey)
	}

	if err := RestoreBackup(path, 1); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	loaded, _, _ = Load(path)
	if loaded.OpenAIKey != "sk-1" {
		t.Errorf("after restore OpenAIKey = %q, want sk-1", loaded.OpenAIKey)
	}
	if len(ListBackups(path)) != 3 {
		t.Errorf("restore should back up the current file")
	}
}

func TestBackupRotationLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentalnote.json")
	for i := 0; i < DefaultBackupCount+3; i++ {
		if err := BackupAndWriteJSON(path, map[string]int{"n": i}, DefaultBackupCount); err != nil {
			t.Fatal(err)
		}
	}
	backups := ListBackups(path)
	if len(backups) != DefaultBackupCount {
		t.Fatalf("backups = %d, want %d", len(backups), DefaultBackupCount)
	}
	data, _ := os.ReadFile(backups[0].Path)
	var v map[string]int
	json.Unmarshal(data, &v)
	if v["n"] != DefaultBackupCount+1 {
		t.Errorf("newest backup n = %d, want %d", v["n"], DefaultBackupCount+1)
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentalnote.json")
	if err := RestoreBackup(path, 0); err == nil {
		t.Error("expected error")
	}
}

func TestProviderMapping(t *testing.T) {
	tests := []struct {
		in   string
		want notes.Provider
	}{
		{"openai", notes.ProviderOpenAI},
		{"anthropic", notes.ProviderAnthropic},
		{"gemini", notes.ProviderGemini},
		{"OpenAI", notes.ProviderOpenAI},
		{" Gemini ", notes.ProviderGemini},
		{"mistral", notes.Provider("mistral")},
		{"", notes.ProviderOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := Settings{DefaultProvider: tt.in}
			if got := s.Provider(); got != tt.want {
				t.Errorf("Provider() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKeyHelpers(t *testing.T) {
	s := Settings{OpenAIKey: "o", AnthropicKey: "a", GeminiKey: "g"}
	if s.APIKeyFor(notes.ProviderOpenAI) != "o" || s.APIKeyFor(notes.ProviderAnthropic) != "a" || s.APIKeyFor(notes.ProviderGemini) != "g" {
		t.Error("APIKeyFor mismatch")
	}
	if s.APIKeyFor("mistral") != "g" {
		t.Error("unknown provider should get the Gemini key")
	}
	if !s.HasAnyLLMKey() {
		t.Error("HasAnyLLMKey = false")
	}
	if (&Settings{NotionToken: "t"}).HasAnyLLMKey() {
		t.Error("Notion token is not an LLM key")
	}
	if (&Settings{NotionToken: "t"}).HasNotion() {
		t.Error("HasNotion needs a database id too")
	}
	if !(&Settings{NotionToken: "t", NotionDatabaseID: "d"}).HasNotion() {
		t.Error("HasNotion = false")
	}
}

func TestRedacted(t *testing.T) {
	s := &Settings{
		OpenAIKey:        "sk-proj-abcdefghijklmnop",
		NotionToken:      "secret_1234567890abcd",
		NotionDatabaseID: "0123456789abcdef0123456789abcdef",
	}
	r := s.Redacted()
	raw, _ := json.Marshal(r)
	for _, secret := range []string{s.OpenAIKey, s.NotionToken} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("redacted output contains %q", secret)
		}
	}
	if r.NotionDatabaseID != s.NotionDatabaseID {
		t.Error("database id is not a secret")
	}
	if s.OpenAIKey != "sk-proj-abcdefghijklmnop" {
		t.Error("Redacted modified the receiver")
	}
	if r.GeminiKey != "(not set)" {
		t.Errorf("GeminiKey = %q", r.GeminiKey)
	}
}

func TestValidate(t *testing.T) {
	s := Defaults()
	if w := s.Validate(); len(w) != 0 {
		t.Errorf("defaults should validate cleanly: %v", w)
	}

	s.NotionDatabaseID = "0123456789abcdef0123456789abcdef"
	if w := s.Validate(); len(w) != 0 {
		t.Errorf("dashless uuid rejected: %v", w)
	}
	s.NotionDatabaseID = "01234567-89ab-cdef-0123-456789abcdef"
	if w := s.Validate(); len(w) != 0 {
		t.Errorf("dashed uuid rejected: %v", w)
	}

	s.NotionDatabaseID = "not-an-id"
	s.DefaultProvider = "mistral"
	s.SpeechMethod = "native"
	if w := s.Validate(); len(w) != 3 {
		t.Errorf("warnings = %v, want 3", w)
	}
}

func TestFormDefFieldsExist(t *testing.T) {
	s := Defaults()
	def := s.FormDef()
	raw, _ := json.Marshal(s)
	var keys map[string]any
	json.Unmarshal(raw, &keys)

	seen := 0
	for _, section := range def.Sections {
		for _, f := range section.Fields {
			seen++
			if _, ok := keys[f.Name]; !ok && f.Name != "whisperBaseURL" {
				t.Errorf("form field %q has no settings key", f.Name)
			}
		}
	}
	if seen == 0 {
		t.Error("form has no fields")
	}
}
