package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Und)

// NormalizeWord folds a token for comparison: NFC composition, Unicode
// lower-casing and removal of leading and trailing punctuation or symbols.
// Inner punctuation (hyphens, apostrophes) is kept. A token made only of
// punctuation normalizes to "".
func NormalizeWord(token string) string {
	token = norm.NFC.String(strings.TrimSpace(token))
	token = lowerCaser.String(token)
	return strings.TrimFunc(token, isTrimmable)
}

func isTrimmable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
}

// Words splits text on whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return len([]rune(s))
}
