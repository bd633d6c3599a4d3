package llm

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/notes"
)

const (
	maxDumpFiles = 20
	maxDumpBody  = 50000
)

// CapturingTransport is an http.RoundTripper that captures request/response
// bodies for error dumps. Headers are never captured. Thread-safe.
type CapturingTransport struct {
	Base http.RoundTripper

	mu           sync.RWMutex
	lastRequest  []byte
	lastResponse []byte
	lastStatus   int
	lastURL      string
}

// RoundTrip implements http.RoundTripper, capturing request and response bodies
func (t *CapturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	t.mu.Lock()
	t.lastRequest = reqBody
	t.lastURL = redactURL(req.URL.String())
	t.lastResponse = nil
	t.lastStatus = 0
	t.mu.Unlock()

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	// Re-wrap so the SDK can still read the body
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	t.mu.Lock()
	t.lastResponse = respBody
	t.lastStatus = resp.StatusCode
	t.mu.Unlock()

	return resp, nil
}

// GetLastCapture returns the last captured request/response data
func (t *CapturingTransport) GetLastCapture() (reqBody, respBody []byte, status int, url string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastRequest, t.lastResponse, t.lastStatus, t.lastURL
}

// redactURL drops the query string, which carries the key for some APIs.
func redactURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i] + "?(redacted)"
	}
	return u
}

// writeErrorDump writes a dump of a failed call into dir. No-op when dir is empty.
func writeErrorDump(dir string, provider notes.Provider, model, baseURL string, callErr error, transport *CapturingTransport) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		L_warn("dump: failed to create dump dir", "error", err)
		return
	}

	now := time.Now()
	if baseURL == "" {
		baseURL = "(default)"
	}

	var sb strings.Builder
	sb.WriteString("=== LLM ERROR DUMP ===\n")
	fmt.Fprintf(&sb, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Provider: %s\n", provider)
	fmt.Fprintf(&sb, "Model: %s\n", model)
	fmt.Fprintf(&sb, "BaseURL: %s\n", baseURL)
	fmt.Fprintf(&sb, "Error Type: %T\n", callErr)
	fmt.Fprintf(&sb, "Error Message: %v\n", callErr)

	if transport != nil {
		reqBody, respBody, status, url := transport.GetLastCapture()
		sb.WriteString("\n=== HTTP CAPTURE ===\n")
		fmt.Fprintf(&sb, "URL: %s\n", url)
		fmt.Fprintf(&sb, "Status: %d\n", status)
		writeBody(&sb, "Request Body", reqBody)
		writeBody(&sb, "Response Body", respBody)
	}

	name := fmt.Sprintf("%s_%s_%s_error.txt", provider, sanitizeFilename(model), now.Format("20060102-150405.000"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		L_warn("dump: failed to write dump", "path", path, "error", err)
		return
	}
	L_info("dump: LLM error captured", "path", path)

	cleanupDumps(dir)
}

func writeBody(sb *strings.Builder, title string, body []byte) {
	if len(body) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n--- %s ---\n", title)
	if len(body) > maxDumpBody {
		sb.Write(body[:maxDumpBody])
		fmt.Fprintf(sb, "\n... (truncated, total %d bytes)\n", len(body))
		return
	}
	sb.Write(body)
	sb.WriteString("\n")
}

// sanitizeFilename replaces characters that are problematic in filenames
func sanitizeFilename(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_").Replace(s)
}

// cleanupDumps keeps only the most recent maxDumpFiles files
func cleanupDumps(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: e.Name(), modTime: info.ModTime()})
	}
	if len(files) <= maxDumpFiles {
		return
	}

	// Oldest first
	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name < files[j].name
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	for _, f := range files[:len(files)-maxDumpFiles] {
		path := filepath.Join(dir, f.name)
		if err := os.Remove(path); err != nil {
			L_warn("dump: failed to cleanup old dump", "path", path, "error", err)
		}
	}
}
