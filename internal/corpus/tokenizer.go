// Package corpus loads plain-text documents and derives the line and token
// views every downstream structure is built from.
package corpus

import (
	"strings"
	"unicode"
)

// Normalize lowercases s and removes every rune that is neither a word
// character (letter, digit, underscore) nor whitespace. Original spacing is
// preserved so callers can still split on whitespace runs.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)
}

// Tokenize normalizes s and splits it on whitespace runs into word tokens.
// Empty tokens never occur in the result.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}
