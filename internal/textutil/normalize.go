package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// TitleKey reduces a display title to a canonical comparison key: Unicode
// compatibility normalization, full-width to half-width folding, case
// folding, and removal of punctuation and whitespace. CJK characters are
// preserved. Two titles match when their keys are equal.
func TitleKey(title string) string {
	folded := width.Fold.String(norm.NFKC.String(title))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// EqualTitles reports whether two titles are equal after trimming
// surrounding whitespace, without any further normalization.
func EqualTitles(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
