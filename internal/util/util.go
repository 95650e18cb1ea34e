// Package util provides small string helpers shared across geotime.
package util

import (
	"strings"
	"unicode"
)

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// from a model response so the body can be parsed as JSON.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// SanitizeFilename turns a user supplied plan name into a safe file name:
// spaces and path or drive separators become underscores, control
// characters are dropped. An empty result yields "plan".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ' || r == ':' || r == '/' || r == '\\':
			b.WriteByte('_')
		case unicode.IsControl(r):
		case strings.ContainsRune(`<>"|?*`, r):
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "plan"
	}
	return out
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
