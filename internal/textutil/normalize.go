package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC, lowercases, and collapses whitespace.
func Normalize(text string) string {
	folded := strings.ToLower(norm.NFKC.String(text))
	return strings.Join(strings.Fields(folded), " ")
}

// ContainsFold reports whether needle appears in haystack after both are normalized.
// Whitespace is ignored so "battery life" matches "batterylife" in unspaced scripts.
func ContainsFold(haystack, needle string) bool {
	n := squash(Normalize(needle))
	if n == "" {
		return false
	}
	return strings.Contains(squash(Normalize(haystack)), n)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// WordCount counts whitespace-separated words, treating each ideographic,
// kana, or hangul character as its own word.
func WordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range norm.NFKC.String(text) {
		switch {
		case isCJK(r):
			count++
			inWord = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// PathToken turns a category or source name into a path component. Text is
// normalized, letters and digits and hyphens are kept, and every other run of
// characters becomes a single underscore. Empty results become "unknown".
func PathToken(value string) string {
	var b strings.Builder
	gap := false
	for _, r := range Normalize(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
