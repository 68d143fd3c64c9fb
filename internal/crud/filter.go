package crud

import (
	"strings"
)

// Filter returns the records whose search text contains term, ignoring case. An empty
// term keeps every record. The input slice is never modified.
func Filter[T Record](records []T, term string, text func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if term == "" || matches(text(rec), term) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(fields []string, term string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
