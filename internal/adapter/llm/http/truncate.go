package http

import "unicode/utf8"

const (
	// MaxLoggedPromptBytes caps prompt previews recorded in logs.
	MaxLoggedPromptBytes = 1000
	// MaxLoggedSystemBytes caps system-instruction previews recorded in logs.
	MaxLoggedSystemBytes = 500
	// MaxLoggedCompletionBytes caps completion previews recorded in logs.
	MaxLoggedCompletionBytes = 2000
)

// Truncate limits s to at most max bytes without splitting a multi-byte
// character. Strings already within budget are returned unchanged.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
