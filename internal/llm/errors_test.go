package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorType
	}{
		{"", ErrorTypeUnknown},
		{"something odd happened", ErrorTypeUnknown},
		{"error, status code: 401, message: Incorrect API key provided", ErrorTypeAuth},
		{"POST \"https://api.anthropic.com/v1/messages\": 401 Unauthorized", ErrorTypeAuth},
		{"API key not valid. Please pass a valid API key.", ErrorTypeAuth},
		{"status code: 429, message: Rate limit reached for gpt-4o", ErrorTypeRateLimit},
		{"status code: 429, message: You exceeded your current quota, please check your plan and billing details", ErrorTypeBilling},
		{"Your credit balance is too low to access the Anthropic API", ErrorTypeBilling},
		{"529 overloaded_error: Overloaded", ErrorTypeOverloaded},
		{"context deadline exceeded", ErrorTypeTimeout},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.msg); got != tt.want {
			t.Errorf("ClassifyError(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestErrorSummary(t *testing.T) {
	plain := errors.New("weird failure")
	if got := ErrorSummary(plain); got != "weird failure" {
		t.Errorf("ErrorSummary(unknown) = %q", got)
	}

	auth := errors.New("401 Unauthorized")
	got := ErrorSummary(auth)
	if !strings.HasPrefix(got, "401 Unauthorized\n") || !strings.Contains(got, "API key") {
		t.Errorf("ErrorSummary(auth) = %q", got)
	}
	if Hint(nil) != "" {
		t.Error("Hint(nil) should be empty")
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://x/v1beta/models/m:generateContent?key=abc"); strings.Contains(got, "abc") {
		t.Errorf("redactURL leaked query: %q", got)
	}
	if got := redactURL("https://x/v1/messages"); got != "https://x/v1/messages" {
		t.Errorf("redactURL changed a clean URL: %q", got)
	}
}
