package render

import "strings"

// MergeFormErrors appends extras to existing and normalises the result.
func MergeFormErrors(existing []string, extras ...string) []string {
	return NormalizeMessages(append(append([]string(nil), existing...), extras...))
}

// NormalizeMessages keeps the first occurrence of every non-blank message,
// trimmed, in input order. Nil is returned when nothing survives.
func NormalizeMessages(messages []string) []string {
	var kept []string
	for idx, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || containsBefore(messages[:idx], message) {
			continue
		}
		kept = append(kept, message)
	}
	return kept
}

func containsBefore(earlier []string, message string) bool {
	for _, candidate := range earlier {
		if strings.TrimSpace(candidate) == message {
			return true
		}
	}
	return false
}
