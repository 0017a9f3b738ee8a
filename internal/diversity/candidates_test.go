package diversity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"promocut/internal/logging"
	"promocut/internal/segment"
	"promocut/internal/services"
	"promocut/internal/similarity"
	"promocut/internal/subtitles"
)

func lines(texts ...string) []subtitles.Line {
	out := make([]subtitles.Line, len(texts))
	for i, text := range texts {
		start := float64(i * 2)
		out[i] = subtitles.Line{Start: start, End: start + 2, Text: text}
	}
	return out
}

func TestWindowsRespectLengthBounds(t *testing.T) {
	got := Windows(lines("one", "two", "three", "four"), 3, 4)
	want := []Window{
		{Start: 0, End: 4, Text: "one two"},
		{Start: 2, End: 6, Text: "two three"},
		{Start: 4, End: 8, Text: "three four"},
	}
	if len(got) != len(want) {
		t.Fatalf("windows = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if Windows(lines("one"), 5, 4) != nil {
		t.Fatal("inverted bounds should yield no windows")
	}
}

func TestStagesFromSegmentsProtection(t *testing.T) {
	segs := []segment.Segment{
		{Start: 0, End: 3, Text: "Meet the new ACME phone"},
		{Start: 3, End: 6, Text: "it lasts all day"},
		{Start: 6, End: 9, Text: "available now"},
	}
	stages := StagesFromSegments(segs, []string{"acme"})
	protected := []bool{true, false, true}
	for i, stage := range stages {
		if stage.ID != i+1 || stage.Protected != protected[i] {
			t.Fatalf("stage %d = %+v", i, stage)
		}
	}
}

func wordOverlap(a, b string) float64 {
	aw := strings.Fields(a)
	hits := 0
	for _, w := range aw {
		if strings.Contains(b, w) {
			hits++
		}
	}
	if len(aw) == 0 {
		return 0
	}
	return float64(hits) / float64(len(aw))
}

func TestGenerateRanksBestWindowPerSource(t *testing.T) {
	opts := OptionsFromConfig(nil)
	opts.CandidatesPerStage = 2
	gen, err := NewGenerator(similarity.Func(wordOverlap), opts, 3, logging.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	stages := []Stage{{ID: 1, Start: 0, End: 4, Text: "battery lasts"}}
	sources := []Source{
		{ID: "weak", Lines: lines("battery", "camera", "screen")},
		{ID: "strong", Lines: lines("the battery", "lasts long", "camera")},
		{ID: "none", Lines: lines("screen", "speaker", "case")},
	}
	got, err := gen.Generate(context.Background(), stages, sources)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cands := got[1]
	if len(cands) != 2 {
		t.Fatalf("expected candidates cut to 2, got %+v", cands)
	}
	if cands[0].SourceID != "strong" || cands[0].Similarity != 100 {
		t.Fatalf("best candidate = %+v", cands[0])
	}
	if cands[1].SourceID != "weak" || cands[1].Similarity != 50 {
		t.Fatalf("second candidate = %+v", cands[1])
	}
	if cands[0].WindowStart != 0 || cands[0].WindowEnd != 4 || cands[0].Duration != 4 {
		t.Fatalf("unexpected window: %+v", cands[0])
	}
}

func TestGenerateIsOrderIndependent(t *testing.T) {
	gen, err := NewGenerator(similarity.Func(func(a, b string) float64 { return 0.5 }), OptionsFromConfig(nil), 4, logging.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	stages := []Stage{{ID: 1, Start: 0, End: 4, Text: "x"}}
	var sources []Source
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		sources = append(sources, Source{ID: id, Lines: lines("a", "b")})
	}
	for run := 0; run < 5; run++ {
		got, err := gen.Generate(context.Background(), stages, sources)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for i, c := range got[1] {
			if c.SourceID != sources[i].ID {
				t.Fatalf("run %d: tie order changed at %d: %s", run, i, c.SourceID)
			}
		}
	}
}

type brokenSim struct{}

func (brokenSim) Similarity(context.Context, string, string) (float64, error) {
	return 0, services.Wrap(services.ErrExternalService, "test", "similarity", "unavailable", nil)
}

func TestGenerateAttachesSourceOnFailure(t *testing.T) {
	gen, err := NewGenerator(brokenSim{}, OptionsFromConfig(nil), 2, logging.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	_, err = gen.Generate(context.Background(), []Stage{{ID: 1, Start: 0, End: 4, Text: "x"}}, []Source{{ID: "bad", Lines: lines("a", "b")}})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if id, ok := services.SourceIDOf(err); !ok || id != "bad" {
		t.Fatalf("expected source id bad, got %q", id)
	}
}
