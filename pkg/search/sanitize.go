package search

import (
	"strings"
	"unicode"
)

const (
	// MaxQueryLength caps raw input at 100 code points before matching.
	MaxQueryLength = 100
	// MinQueryLength is the shortest query that triggers scored matching.
	MinQueryLength = 2
	// MaxResults caps how many scored candidates a search keeps.
	MaxResults = 50
)

// Sanitize turns untrusted free text into a query the matcher accepts:
// invalid UTF-8 is dropped, the input is truncated to MaxQueryLength code
// points, markup-sensitive characters are stripped, everything outside the
// allow-list (Latin and Cyrillic letters, digits, spaces, a little
// punctuation) is removed, and the result is trimmed.
//
// Sanitize never fails; hostile input degrades to an empty string, which the
// matcher treats as "no matches".
func Sanitize(input string) string {
	return SanitizeLimit(input, MaxQueryLength)
}

// SanitizeLimit is Sanitize with a caller-supplied code-point cap, used when
// the cap comes from config rather than the builtin default.
func SanitizeLimit(input string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = MaxQueryLength
	}
	input = strings.ToValidUTF8(input, "")

	runes := []rune(input)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}

	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		if isStripped(r) {
			continue
		}
		if isAllowed(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// isStripped reports markup-sensitive characters that are always removed.
// The strip pass runs before the allow-list, so quotes never survive even
// though the allow-list nominally includes them.
func isStripped(r rune) bool {
	switch r {
	case '<', '>', '"', '\'', '&':
		return true
	}
	return false
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я':
		return true
	case r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case '-', '.', ',', '(', ')', '\'', '"':
		return true
	}
	return false
}
