// Package sanitize cleans free text before it reaches the model.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the rune cap used when callers pass a non-positive limit.
const DefaultMaxLength = 2000

const (
	zwnj = '\u200c'
	zwj  = '\u200d'
)

// Sanitize normalizes raw to NFC, removes control characters, trims
// surrounding whitespace and caps the result at maxLength runes.
// Tabs and line breaks become spaces so paragraph structure survives as
// word boundaries. The result may be empty.
func Sanitize(raw string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		case r == zwnj || r == zwj:
			// joiners shape emoji sequences and Persian or Indic words
			return r
		case unicode.Is(unicode.Cf, r):
			// zero-width space and bidi overrides
			return -1
		}
		return r
	}, norm.NFC.String(raw))

	cleaned = strings.TrimSpace(cleaned)
	return strings.TrimSpace(truncateRunes(cleaned, maxLength))
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// IsBlank reports whether raw sanitizes to the empty string.
func IsBlank(raw string) bool {
	return Sanitize(raw, 0) == ""
}
