package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fingerprint represents a term-frequency vector for text similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits normalized text into word tokens and CJK bigrams.
// Single-character latin tokens are dropped; a lone CJK character is kept.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	terms := make([]string, 0, len(normalized)/4)

	var word strings.Builder
	var cjk []rune
	flushWord := func() {
		if utf8.RuneCountInString(word.String()) >= 2 {
			terms = append(terms, word.String())
		}
		word.Reset()
	}
	flushCJK := func() {
		switch len(cjk) {
		case 0:
		case 1:
			terms = append(terms, string(cjk))
		default:
			for i := 0; i+1 < len(cjk); i++ {
				terms = append(terms, string(cjk[i:i+2]))
			}
		}
		cjk = cjk[:0]
	}

	for _, r := range normalized {
		switch {
		case isCJK(r):
			flushWord()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			word.WriteRune(r)
		default:
			flushWord()
			flushCJK()
		}
	}
	flushWord()
	flushCJK()
	return terms
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// Cosine returns the cosine similarity of two fingerprints in [0,1]. A nil
// or empty fingerprint on either side scores 0.
func (f *Fingerprint) Cosine(other *Fingerprint) float64 {
	if f.TokenCount() == 0 || other.TokenCount() == 0 {
		return 0
	}
	small, large := f, other
	if len(large.tokens) < len(small.tokens) {
		small, large = large, small
	}
	var dot float64
	for token, count := range small.tokens {
		dot += count * large.tokens[token]
	}
	return math.Min(1, dot/(f.norm*other.norm))
}
