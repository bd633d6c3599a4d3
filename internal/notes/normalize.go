package notes

import (
	"encoding/json"
	"regexp"
)

// jsonSpan matches from the first '{' to the last '}' in the text. It is a
// heuristic, not a parser: nested objects followed by trailing text with
// braces produce a span that fails to parse, and that falls back.
var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Normalize converts a raw model reply into a fully populated ProcessResult.
// It never fails: anything it cannot use is replaced by the defaults, and
// the raw text becomes the content.
func Normalize(raw string) ProcessResult {
	span := jsonSpan.FindString(raw)
	if span == "" {
		return fallbackResult(raw)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return fallbackResult(raw)
	}

	return ProcessResult{
		Title:    stringOr(parsed["title"], DefaultTitle),
		Content:  stringOr(parsed["content"], raw),
		Category: stringOr(parsed["category"], DefaultCategory),
		Tags:     tagsOf(parsed["tags"]),
	}
}

// stringOr returns v when it is a non-empty string, otherwise def.
func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// tagsOf accepts any JSON array. Elements are not validated; non-string
// elements keep their JSON text.
func tagsOf(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	tags := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := el.(string); ok {
			tags = append(tags, s)
			continue
		}
		b, err := json.Marshal(el)
		if err != nil {
			continue
		}
		tags = append(tags, string(b))
	}
	return tags
}
