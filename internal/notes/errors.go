package notes

import "fmt"

// ErrMissingCredential is returned before any network call when the API key
// for the selected provider is empty.
type ErrMissingCredential struct {
	Provider Provider
}

func (e ErrMissingCredential) Error() string {
	return fmt.Sprintf("API key for %s is missing", e.Provider)
}

// ErrUnsupportedProvider is returned for a provider tag outside Providers.
type ErrUnsupportedProvider struct {
	Provider Provider
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("invalid AI provider selected: %q", string(e.Provider))
}

// ErrProviderCallFailed wraps any failure of the backend call.
type ErrProviderCallFailed struct {
	Provider Provider
	Err      error
}

func (e ErrProviderCallFailed) Error() string {
	return fmt.Sprintf("failed to process with %s: %v", e.Provider, e.Err)
}

func (e ErrProviderCallFailed) Unwrap() error {
	return e.Err
}
