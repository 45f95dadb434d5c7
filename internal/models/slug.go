package models

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe identifier from a human-readable name:
// lower-cased, punctuation stripped, whitespace runs collapsed to a
// single hyphen. Deterministic for a given name.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		// everything else (punctuation, symbols) is dropped
	}

	return strings.TrimRight(b.String(), "-")
}
