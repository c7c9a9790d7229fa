package tgui

import (
	"strings"
	"unicode/utf8"
)

// TruncRunes returns s truncated to at most n runes.
// It appends an ellipsis "…" when truncated.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := 0
	for i := 0; i < n-1; i++ {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	return s[:cut] + "…"
}

// PadRight truncates or pads s with spaces to exactly n runes.
func PadRight(s string, n int) string {
	s = TruncRunes(s, n)
	if k := utf8.RuneCountInString(s); k < n {
		s += strings.Repeat(" ", n-k)
	}
	return s
}

// PadLeft is PadRight aligned to the right.
func PadLeft(s string, n int) string {
	s = TruncRunes(s, n)
	if k := utf8.RuneCountInString(s); k < n {
		s = strings.Repeat(" ", n-k) + s
	}
	return s
}
