package dimension

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"promocut/internal/logging"
	"promocut/internal/segment"
	"promocut/internal/services"
	"promocut/internal/similarity"
)

// tableSim returns fixed scores for (text, keyword) pairs; unknown pairs score 0.
func tableSim(scores map[string]float64) similarity.Func {
	return func(a, b string) float64 {
		return scores[a+"|"+b]
	}
}

func seg(text string) segment.Segment {
	return segment.Segment{SourceID: "ad", Start: 0, End: 5, Text: text}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func scoringTree() *Tree {
	return NewTree(
		NewNode("d1", "Battery", 1.0, "battery").Add(
			NewNode("s1", "Charging", 0.5, "charge").Add(
				NewNode("k1", "Minutes", 0.5, "minutes"),
			),
			NewNode("s2", "Life", 1.0, "life"),
		),
		NewNode("d2", "Camera", 1.0, "camera").Add(
			NewNode("s3", "Zoom", 1.0, "zoom"),
		),
	)
}

func TestScoreGreedyDescent(t *testing.T) {
	sim := tableSim(map[string]float64{
		"text|battery": 0.8,
		"text|camera":  0.4,
		"text|charge":  0.6,
		"text|life":    0.2,
		"text|minutes": 1.0,
		"text|zoom":    0.9,
	})
	scorer, err := NewScorer(scoringTree(), sim, DefaultOptions(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	got, err := scorer.Score(context.Background(), seg("text"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Category != "Battery" || got.Levels[0].NodeID != "d1" {
		t.Fatalf("level 1 = %+v category %q", got.Levels[0], got.Category)
	}
	// charge: 0.6*0.5 = 0.3 beats life: 0.2*1.0; zoom is in the other branch.
	if got.Levels[1].NodeID != "d1.s1" || !near(got.Levels[1].WeightedScore, 0.3) {
		t.Fatalf("level 2 = %+v", got.Levels[1])
	}
	if got.Levels[2].NodeID != "d1.s1.k1" || !near(got.Levels[2].WeightedScore, 0.25) {
		t.Fatalf("level 3 = %+v", got.Levels[2])
	}
	want := 0.5*0.8 + 0.3*0.3 + 0.2*0.25
	if !near(got.Combined, want) {
		t.Fatalf("combined = %v, want %v", got.Combined, want)
	}
}

func TestScoreExhaustiveDescentSearchesAllBranches(t *testing.T) {
	sim := tableSim(map[string]float64{
		"text|battery": 0.8,
		"text|camera":  0.4,
		"text|charge":  0.6,
		"text|zoom":    0.9,
	})
	opts := DefaultOptions()
	opts.Descent = DescentExhaustive
	scorer, err := NewScorer(scoringTree(), sim, opts, logging.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	got, err := scorer.Score(context.Background(), seg("text"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Category != "Battery" {
		t.Fatalf("category = %q", got.Category)
	}
	if got.Levels[1].NodeID != "d2.s3" {
		t.Fatalf("exhaustive level 2 should pick zoom, got %+v", got.Levels[1])
	}
	if got.Levels[2].Matched() {
		t.Fatalf("level 3 had no positive score, got %+v", got.Levels[2])
	}
}

func TestScoreTieBreaksOnDocumentOrder(t *testing.T) {
	tree, err := Parse([]byte(`{
		"b": {"name": "Second alphabetically", "keywords": ["x"], "weight": 0.5},
		"a": {"name": "First alphabetically", "keywords": ["x"], "weight": 0.5}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sim := similarity.Func(func(a, b string) float64 { return 0.6 })
	scorer, err := NewScorer(tree, sim, DefaultOptions(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	for i := 0; i < 20; i++ {
		got, err := scorer.Score(context.Background(), seg("anything"))
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if got.Levels[0].NodeID != "b" {
			t.Fatalf("iteration %d: tie should resolve to first node, got %q", i, got.Levels[0].NodeID)
		}
	}
}

func TestScoreAveragesKeywords(t *testing.T) {
	tree := NewTree(NewNode("d", "D", 0.5, "one", "two"))
	sim := tableSim(map[string]float64{"text|one": 1.0, "text|two": 0.5})
	scorer, _ := NewScorer(tree, sim, DefaultOptions(), logging.NewNop())
	got, err := scorer.Score(context.Background(), seg("text"))
	if err != nil {
		t.Fatal(err)
	}
	if !near(got.Levels[0].RawScore, 0.75) || !near(got.Levels[0].WeightedScore, 0.375) {
		t.Fatalf("level 1 = %+v", got.Levels[0])
	}
	if !near(got.Combined, 0.5*0.375) {
		t.Fatalf("combined = %v", got.Combined)
	}
}

func TestScoreNoMatchIsCategoryNone(t *testing.T) {
	scorer, _ := NewScorer(scoringTree(), similarity.Func(func(a, b string) float64 { return 0 }), DefaultOptions(), logging.NewNop())
	got, err := scorer.Score(context.Background(), seg("text"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != NoCategory || got.Combined != 0 {
		t.Fatalf("expected category none with zero score, got %q %v", got.Category, got.Combined)
	}
}

func TestScoreKeywordMode(t *testing.T) {
	tree := FromKeywords([]string{"waterproof", "battery life", "camera"})
	sim := tableSim(map[string]float64{
		"swim with it, fully waterproof|waterproof": 0.2,
		"swim with it, fully waterproof|camera":     0.35,
	})
	opts := DefaultOptions()
	opts.Mode = ModeKeyword
	opts.KeywordThreshold = 0.3
	scorer, err := NewScorer(tree, sim, opts, logging.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	got, err := scorer.Score(context.Background(), seg("Swim with it, fully WATERPROOF"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(got.Keywords) != 2 {
		t.Fatalf("expected 2 keyword matches, got %+v", got.Keywords)
	}
	if !got.Keywords[0].Literal || got.Keywords[0].Score != LiteralKeywordScore {
		t.Fatalf("literal containment should score %v, got %+v", LiteralKeywordScore, got.Keywords[0])
	}
	if got.Category != "waterproof" || got.Combined != LiteralKeywordScore {
		t.Fatalf("category %q combined %v", got.Category, got.Combined)
	}
}

func TestScoreAllAttachesSourceOnFailure(t *testing.T) {
	failing := failingSim{}
	scorer, _ := NewScorer(scoringTree(), failing, DefaultOptions(), logging.NewNop())
	_, err := scorer.ScoreAll(context.Background(), []segment.Segment{seg("text")})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if id, ok := services.SourceIDOf(err); !ok || id != "ad" {
		t.Fatalf("expected source id ad, got %q", id)
	}
}

type failingSim struct{}

func (failingSim) Similarity(context.Context, string, string) (float64, error) {
	return 0, services.Wrap(services.ErrExternalService, "test", "sim", "down", nil)
}

func TestNewScorerRequiresDimensions(t *testing.T) {
	_, err := NewScorer(&Tree{}, similarity.Lexical{}, DefaultOptions(), logging.NewNop())
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestScoredSegmentJSONShape(t *testing.T) {
	scorer, _ := NewScorer(scoringTree(), tableSim(map[string]float64{"text|battery": 0.8}), DefaultOptions(), logging.NewNop())
	scored, err := scorer.Score(context.Background(), segment.Segment{SourceID: "ad_01", Start: 61.5, End: 70, Text: "text"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(scored)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"file":"ad_01"`, `"start_time":"00:01:01,500"`, `"level_1":{"dimension_id":"d1"`, `"level_2":{"dimension_id":"none"`, `"combined":0.4`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("missing %s in %s", want, data)
		}
	}
	var back ScoredSegment
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Category != "Battery" || back.Start != 61.5 || back.Combined != scored.Combined {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
