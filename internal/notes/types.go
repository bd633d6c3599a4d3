// Package notes turns a spoken-note transcript into a structured note by
// asking one LLM provider for a JSON reply and normalizing whatever comes back.
package notes

import (
	"fmt"
	"strings"
)

// Provider selects the LLM backend for a request.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}

func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a user-supplied name into a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return p, ErrUnsupportedProvider{Provider: p}
	}
	return p, nil
}

// Defaults shared by the normalizer, the prompt and the settings layer.
const (
	DefaultTitle        = "New Mental Note"
	DefaultCategory     = "General"
	DefaultLanguage     = "English"
	DefaultSystemPrompt = "Summarize this into clear and concise mental bullet points."
)

// ProcessRequest is one processing call. Built fresh per call.
type ProcessRequest struct {
	Text           string
	Provider       Provider
	APIKey         string
	SystemPrompt   string
	OutputLanguage string // empty means DefaultLanguage
}

// language returns the effective output language.
func (r ProcessRequest) language() string {
	if r.OutputLanguage == "" {
		return DefaultLanguage
	}
	return r.OutputLanguage
}

// String never includes the API key.
func (r ProcessRequest) String() string {
	return fmt.Sprintf("ProcessRequest{provider=%s language=%s text=%d chars}", r.Provider, r.language(), len(r.Text))
}

// ProcessResult is the structured note. Every field is always populated;
// Tags may be empty but is never nil.
type ProcessResult struct {
	Title    string   `json:"title" yaml:"title"`
	Content  string   `json:"content" yaml:"content"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// fallbackResult is what the normalizer returns when no usable JSON is found.
func fallbackResult(raw string) ProcessResult {
	return ProcessResult{
		Title:    DefaultTitle,
		Content:  raw,
		Category: DefaultCategory,
		Tags:     []string{},
	}
}
