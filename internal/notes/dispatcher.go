package notes

import (
	"context"
	"fmt"
	"time"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
)

// Backend performs one completion call against a provider.
// instruction is the full system prompt, text is the user transcript.
type Backend interface {
	Complete(ctx context.Context, instruction, text string) (string, error)
}

// BackendFactory builds the backend for a provider and key. It is called
// once per request; backends carry no state between calls.
type BackendFactory func(provider Provider, apiKey string) (Backend, error)

// Dispatcher routes a ProcessRequest to exactly one backend.
type Dispatcher struct {
	newBackend BackendFactory
}

// NewDispatcher creates a dispatcher using factory to build backends.
func NewDispatcher(factory BackendFactory) *Dispatcher {
	return &Dispatcher{newBackend: factory}
}

// Dispatch validates the request, calls the selected backend once and
// returns its raw text. There are no retries.
func (d *Dispatcher) Dispatch(ctx context.Context, req ProcessRequest) (string, error) {
	if req.APIKey == "" {
		return "", ErrMissingCredential{Provider: req.Provider}
	}
	if !req.Provider.Valid() {
		return "", ErrUnsupportedProvider{Provider: req.Provider}
	}
	if d.newBackend == nil {
		return "", ErrProviderCallFailed{Provider: req.Provider, Err: fmt.Errorf("no backend factory configured")}
	}

	backend, err := d.newBackend(req.Provider, req.APIKey)
	if err != nil {
		return "", ErrProviderCallFailed{Provider: req.Provider, Err: err}
	}

	instruction := FullPrompt(req.SystemPrompt, req.language())
	L_debug("notes: dispatching", "provider", req.Provider, "instructionLen", len(instruction), "textLen", len(req.Text))

	start := time.Now()
	raw, err := backend.Complete(ctx, instruction, req.Text)
	if err != nil {
		return "", ErrProviderCallFailed{Provider: req.Provider, Err: err}
	}
	L_elapsed(start, "notes: provider replied", "provider", req.Provider, "responseLen", len(raw))
	return raw, nil
}

// ProcessNote dispatches the request and normalizes the reply.
func (d *Dispatcher) ProcessNote(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	raw, err := d.Dispatch(ctx, req)
	if err != nil {
		return ProcessResult{}, err
	}
	return Normalize(raw), nil
}
