package llm

import (
	"fmt"
	"strings"
)

// ErrorType categorizes provider errors for user messaging.
type ErrorType string

const (
	ErrorTypeUnknown    ErrorType = "unknown"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeOverloaded ErrorType = "overloaded"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeBilling    ErrorType = "billing"
	ErrorTypeTimeout    ErrorType = "timeout"
)

// ClassifyError determines the error type from an error message.
// Returns ErrorTypeUnknown if the error doesn't match any known pattern.
func ClassifyError(msg string) ErrorType {
	if msg == "" {
		return ErrorTypeUnknown
	}
	// Billing before rate limit: OpenAI's insufficient_quota also says "quota".
	if IsBillingMessage(msg) {
		return ErrorTypeBilling
	}
	if IsRateLimitMessage(msg) {
		return ErrorTypeRateLimit
	}
	if IsOverloadedMessage(msg) {
		return ErrorTypeOverloaded
	}
	if IsAuthMessage(msg) {
		return ErrorTypeAuth
	}
	if IsTimeoutMessage(msg) {
		return ErrorTypeTimeout
	}
	return ErrorTypeUnknown
}

// FormatErrorForUser returns a short hint for an error type. Unknown
// errors get no hint.
func FormatErrorForUser(errType ErrorType) string {
	switch errType {
	case ErrorTypeRateLimit:
		return "Rate limited - too many requests. Please wait a moment and try again."
	case ErrorTypeOverloaded:
		return "The AI service is temporarily overloaded. Please try again in a moment."
	case ErrorTypeAuth:
		return "Authentication failed. Check your API key in settings."
	case ErrorTypeBilling:
		return "Billing issue with the AI provider. Check your account credits/plan."
	case ErrorTypeTimeout:
		return "Request timed out. Please try again."
	default:
		return ""
	}
}

// Hint classifies err and returns the user hint, or "".
func Hint(err error) string {
	if err == nil {
		return ""
	}
	return FormatErrorForUser(ClassifyError(err.Error()))
}

func containsAny(lower string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// IsRateLimitMessage checks if a message indicates rate limiting.
func IsRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return containsAny(lower,
		"429",
		"rate_limit",
		"rate limit",
		"too many requests",
		"quota exceeded",
		"resource_exhausted",
		"resource has been exhausted",
		"requests per minute",
	)
}

// IsOverloadedMessage checks if a message indicates the service is overloaded.
func IsOverloadedMessage(msg string) bool {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "503") && containsAny(lower, "service", "unavailable") {
		return true
	}
	return containsAny(lower,
		"overloaded",
		"server is busy",
		"temporarily unavailable",
	)
}

// IsAuthMessage checks if a message indicates authentication failure.
func IsAuthMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return containsAny(lower,
		"401",
		"403",
		"invalid api key",
		"invalid_api_key",
		"incorrect api key",
		"api key not valid",
		"unauthorized",
		"forbidden",
		"authentication",
		"invalid x-api-key",
		"permission_denied",
	)
}

// IsBillingMessage checks if a message indicates billing/payment issues.
func IsBillingMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return containsAny(lower,
		"402",
		"payment required",
		"insufficient_quota",
		"exceeded your current quota",
		"credit balance",
		"billing",
	)
}

// IsTimeoutMessage checks if a message indicates a timeout.
func IsTimeoutMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return containsAny(lower,
		"408",
		"504",
		"timeout",
		"timed out",
		"deadline exceeded",
	)
}

// ErrorSummary renders err with its hint on a second line, for CLI output.
func ErrorSummary(err error) string {
	if hint := Hint(err); hint != "" {
		return fmt.Sprintf("%v\n%s", err, hint)
	}
	return err.Error()
}
