package providers

import (
	"strconv"
	"strings"
)

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// idString renders a provider id claim as a string regardless of the
// JSON type the provider chose (github uses numbers, most use strings).
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	}
	return ""
}

// splitName applies the conservative display-name rule: first
// whitespace-delimited token is the first name, the remainder the last.
// Ambiguous names stay ambiguous; nothing beyond this rule is guessed.
func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func strptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
