package util

import (
	"strings"
	"unicode"
)

// SanitizeFreeText prepares user-entered notes for embedding in a prompt.
// Control characters are dropped, whitespace runs collapse to one space and the
// result is cut to at most limit runes.
func SanitizeFreeText(s string, limit int) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	out := b.String()
	if limit > 0 {
		if runes := []rune(out); len(runes) > limit {
			out = strings.TrimSpace(string(runes[:limit]))
		}
	}
	return out
}
