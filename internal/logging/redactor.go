package logging

import (
	"regexp"
	"strings"
)

// redactor masks values of sensitive keys in log key-value pairs.
// Notification payloads are private to the user and are masked as well.
type redactor struct {
	sensitiveWords map[string]bool
}

var segmentSplitter = regexp.MustCompile(`[^a-z0-9]+`)

func newRedactor() *redactor {
	words := []string{"secret", "password", "token", "auth", "credential", "content", "text", "title", "data"}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return &redactor{sensitiveWords: m}
}

// redact walks through flattened key-value pairs and returns a copy where
// values of sensitive keys are replaced with "[REDACTED]".
func (r *redactor) redact(pairs []any) []any {
	if len(pairs) == 0 {
		return pairs
	}
	result := make([]any, len(pairs))
	copy(result, pairs)
	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		if r.isSensitive(key) {
			result[i+1] = "[REDACTED]"
		}
	}
	return result
}

// isSensitive reports whether any segment of the key is a sensitive word.
func (r *redactor) isSensitive(key string) bool {
	for _, part := range segmentSplitter.Split(strings.ToLower(key), -1) {
		if r.sensitiveWords[part] {
			return true
		}
	}
	return false
}
