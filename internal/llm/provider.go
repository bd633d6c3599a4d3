// Package llm implements the note-processing backends for each supported
// provider. Each backend owns the translation between the common
// instruction/text contract and its vendor SDK.
package llm

import (
	"net/http"
	"time"

	"github.com/roelfdiedericks/mentalnote/internal/notes"
)

// Fixed models and limits per provider.
const (
	OpenAIModel        = "gpt-4o"
	AnthropicModel     = "claude-3-5-sonnet-20240620"
	AnthropicMaxTokens = 1024
	GeminiModel        = "gemini-1.5-flash"
)

// Options configures how backends reach their endpoints.
type Options struct {
	// BaseURLs overrides the default endpoint per provider (proxies, tests).
	BaseURLs map[notes.Provider]string

	// Transport is the base round tripper (nil = http.DefaultTransport).
	Transport http.RoundTripper

	// Timeout for a single call. Zero leaves the client default in place.
	Timeout time.Duration

	// DumpDir receives a request/response dump when a call fails.
	// Empty disables dumps.
	DumpDir string
}

func (o Options) baseURL(p notes.Provider) string {
	if o.BaseURLs == nil {
		return ""
	}
	return o.BaseURLs[p]
}

// httpClient returns a client whose transport captures bodies for dumps.
func (o Options) httpClient() (*http.Client, *CapturingTransport) {
	transport := &CapturingTransport{Base: o.Transport}
	return &http.Client{Transport: transport, Timeout: o.Timeout}, transport
}

// Compile-time checks
var (
	_ notes.Backend = (*OpenAIBackend)(nil)
	_ notes.Backend = (*AnthropicBackend)(nil)
	_ notes.Backend = (*GeminiBackend)(nil)
)
