// Package similarity provides the text similarity capability used by the
// scorers. Every implementation returns a value in [0,1].
package similarity

import (
	"context"
	"math"

	"promocut/internal/textutil"
)

// Scorer compares two texts.
type Scorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Func adapts a pure function into a Scorer.
type Func func(a, b string) float64

// Similarity implements Scorer.
func (f Func) Similarity(_ context.Context, a, b string) (float64, error) {
	return Clamp(f(a, b)), nil
}

// Lexical scores texts by cosine similarity of their token fingerprints.
type Lexical struct{}

// Similarity implements Scorer.
func (Lexical) Similarity(_ context.Context, a, b string) (float64, error) {
	return Clamp(textutil.NewFingerprint(a).Cosine(textutil.NewFingerprint(b))), nil
}

// Clamp bounds v to [0,1]; NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// empty, zero, or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
