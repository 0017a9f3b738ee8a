package textutil

import (
	"math"
	"testing"
)

func TestFingerprintCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Fingerprint
		min, max float64
	}{
		{"both nil", nil, nil, 0, 0},
		{"left nil", nil, NewFingerprint("hello world"), 0, 0},
		{"right nil", NewFingerprint("hello world"), nil, 0, 0},
		{"empty vector", &Fingerprint{tokens: map[string]float64{}}, NewFingerprint("hello world test"), 0, 0},
		{"disjoint", NewFingerprint("apple banana cherry"), NewFingerprint("dog elephant frog"), 0, 0},
		{"partial", NewFingerprint("the quick brown fox"), NewFingerprint("the slow brown cat"), 0.01, 0.99},
		{
			"identical",
			NewFingerprint("Waterproof up to fifty meters with all day battery"),
			NewFingerprint("waterproof up to fifty meters with ALL DAY battery"),
			1 - 1e-9, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Cosine(tt.b)
			if got < tt.min || got > tt.max {
				t.Fatalf("Cosine() = %v, want within [%v, %v]", got, tt.min, tt.max)
			}
			if back := tt.b.Cosine(tt.a); back != got {
				t.Fatalf("Cosine not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestFingerprintCosineCJK(t *testing.T) {
	a := NewFingerprint("这款手机的电池续航很长")
	related := a.Cosine(NewFingerprint("电池续航"))
	unrelated := a.Cosine(NewFingerprint("屏幕色彩鲜艳"))
	if related <= unrelated {
		t.Fatalf("related CJK text should score higher: related=%v unrelated=%v", related, unrelated)
	}
	if unrelated != 0 {
		t.Fatalf("no shared bigrams, got %v", unrelated)
	}
}

func TestNewFingerprintEmpty(t *testing.T) {
	if fp := NewFingerprint(""); fp != nil {
		t.Error("expected nil for empty text")
	}
}

func TestNewFingerprintShortTokens(t *testing.T) {
	if fp := NewFingerprint("a b c !"); fp != nil {
		t.Error("expected nil for text with only single-character tokens")
	}
}

func TestNewFingerprintNormCalculation(t *testing.T) {
	// hello:2, world:1
	fp := NewFingerprint("hello hello world")
	if fp == nil {
		t.Fatal("expected fingerprint")
	}
	if math.Abs(fp.norm-math.Sqrt(5)) > 0.0001 {
		t.Errorf("norm = %v, want %v", fp.norm, math.Sqrt(5))
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple words", "Hello World", []string{"hello", "world"}},
		{"filters single characters", "a to the quick fox", []string{"to", "the", "quick", "fox"}},
		{"handles punctuation", "Hello, World! How are you?", []string{"hello", "world", "how", "are", "you"}},
		{"handles numbers", "test123 456test", []string{"test123", "456test"}},
		{"full width folded", "ＡＢＣ　ｄｅｆ", []string{"abc", "def"}},
		{"cjk bigrams", "电池续航", []string{"电池", "池续", "续航"}},
		{"single cjk kept", "好", []string{"好"}},
		{"mixed scripts", "5G手机", []string{"5g", "手机"}},
		{"empty string", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v (len %d), want %v (len %d)", got, len(got), tt.want, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFingerprintTokenCount(t *testing.T) {
	tests := []struct {
		name string
		fp   *Fingerprint
		want int
	}{
		{"nil fingerprint", nil, 0},
		{"unique tokens", NewFingerprint("hello world programming"), 3},
		{"repeated tokens", NewFingerprint("hello hello world world world"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fp.TokenCount(); got != tt.want {
				t.Errorf("TokenCount() = %d, want %d", got, tt.want)
			}
		})
	}
}
