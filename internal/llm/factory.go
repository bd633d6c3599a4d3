// Package llm - Backend factory
package llm

import "github.com/roelfdiedericks/mentalnote/internal/notes"

// NewBackend creates the backend for provider p.
// Dispatches to the appropriate constructor based on the provider tag.
func NewBackend(p notes.Provider, apiKey string, opts Options) (notes.Backend, error) {
	switch p {
	case notes.ProviderOpenAI:
		return NewOpenAIBackend(apiKey, opts)
	case notes.ProviderAnthropic:
		return NewAnthropicBackend(apiKey, opts)
	case notes.ProviderGemini:
		return NewGeminiBackend(apiKey, opts)
	default:
		return nil, notes.ErrUnsupportedProvider{Provider: p}
	}
}

// NewFactory binds opts into a notes.BackendFactory for the dispatcher.
func NewFactory(opts Options) notes.BackendFactory {
	return func(p notes.Provider, apiKey string) (notes.Backend, error) {
		return NewBackend(p, apiKey, opts)
	}
}
