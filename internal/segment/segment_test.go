package segment

import (
	"testing"

	"promocut/internal/logging"
	"promocut/internal/subtitles"
)

func line(start, end float64, text string) subtitles.Line {
	return subtitles.Line{Start: start, End: end, Text: text}
}

func TestSegmenterGroupsByGap(t *testing.T) {
	seg := NewSegmenter(DefaultOptions(), logging.NewNop())
	lines := []subtitles.Line{
		line(0, 2, "this phone lasts all day"),
		line(2.5, 4, "and charges very fast"),
		line(8, 10, "the camera is sharp too"),
	}
	got := seg.Segment("ad_01", lines)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(got), got)
	}
	if got[0].Start != 0 || got[0].End != 4 {
		t.Fatalf("first segment bounds = [%v,%v], want [0,4]", got[0].Start, got[0].End)
	}
	if got[0].Text != "this phone lasts all day and charges very fast" {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
	if got[1].Start != 8 || got[1].SourceID != "ad_01" {
		t.Fatalf("unexpected second segment %+v", got[1])
	}
	if len(got[0].Lines) != 2 {
		t.Fatalf("expected 2 constituent lines, got %d", len(got[0].Lines))
	}
}

func TestSegmenterGapExactlyAtThresholdStaysGrouped(t *testing.T) {
	seg := NewSegmenter(DefaultOptions(), logging.NewNop())
	got := seg.Segment("s", []subtitles.Line{
		line(0, 2, "one two three"),
		line(5, 7, "four five six"),
	})
	if len(got) != 1 {
		t.Fatalf("gap of exactly 3s should not split, got %d segments", len(got))
	}
}

func TestSegmenterMergesShortLines(t *testing.T) {
	seg := NewSegmenter(DefaultOptions(), logging.NewNop())
	lines := []subtitles.Line{
		line(0, 2, "battery lasts two days"),
		line(3, 4, "really"),
		line(10, 12, "ok"),
	}
	got := seg.Segment("s", lines)
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if got[0].End != 4 {
		t.Fatalf("short line should extend end to 4, got %v", got[0].End)
	}
	if got[0].Text != "battery lasts two days really" {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
	if lines[0].Text != "battery lasts two days" || lines[0].End != 2 {
		t.Fatalf("input lines must not be modified: %+v", lines[0])
	}
}

func TestSegmenterDropsLeadingShortLine(t *testing.T) {
	seg := NewSegmenter(DefaultOptions(), logging.NewNop())
	got := seg.Segment("s", []subtitles.Line{
		line(0, 1, "hi"),
		line(1.5, 3, "welcome to the show"),
	})
	if len(got) != 1 || got[0].Start != 1.5 {
		t.Fatalf("leading short line should be dropped, got %+v", got)
	}
}

func TestSegmenterEmptyInput(t *testing.T) {
	seg := NewSegmenter(DefaultOptions(), logging.NewNop())
	if got := seg.Segment("s", nil); len(got) != 0 {
		t.Fatalf("expected no segments, got %d", len(got))
	}
}

func TestSegmenterCJKWordCount(t *testing.T) {
	seg := NewSegmenter(DefaultOptions(), logging.NewNop())
	got := seg.Segment("s", []subtitles.Line{line(0, 2, "电池续航很长")})
	if len(got) != 1 {
		t.Fatalf("CJK line with six characters should form a segment, got %d", len(got))
	}
}
