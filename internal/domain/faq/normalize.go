package faq

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuestion folds a question into a canonical form used for cache
// keys and usage statistics: NFKC, lower case, punctuation collapsed to
// single spaces.
func NormalizeQuestion(q string) string {
	lowered := strings.ToLower(strings.TrimSpace(norm.NFKC.String(q)))
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastSpace = false
			continue
		}
		// whitespace and punctuation both separate words
		if !lastSpace {
			builder.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(builder.String())
}

// IsBlank reports whether msg has no visible content.
func IsBlank(msg string) bool {
	return strings.TrimFunc(msg, unicode.IsSpace) == ""
}
