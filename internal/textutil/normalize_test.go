package textutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello   World ", "hello world"},
		{"ＰＲＯ　Ｍａｘ", "pro max"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"case insensitive", "All-day Battery Life", "battery life", true},
		{"cjk", "这款手机电池续航很长", "电池续航", true},
		{"missing", "great camera", "battery", false},
		{"empty needle", "anything", "  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsFold(tt.haystack, tt.needle); got != tt.want {
				t.Fatalf("ContainsFold(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"one two three", 3},
		{"well, okay!", 2},
		{"电池续航", 4},
		{"5G 手机", 3},
		{"", 0},
	}
	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPathToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Battery Life", "battery_life"},
		{"产品 优势", "产品_优势"},
		{"  ", "unknown"},
		{"a/b", "a_b"},
		{"  Night -- Mode!! ", "night_--_mode"},
		{"ＢＡＴＴＥＲＹ", "battery"},
		{"?!", "unknown"},
		{"clip_01", "clip_01"},
	}
	for _, tt := range tests {
		if got := PathToken(tt.in); got != tt.want {
			t.Errorf("PathToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
