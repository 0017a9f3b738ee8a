package dimension

import (
	"context"
	"fmt"
	"log/slog"

	"promocut/internal/config"
	"promocut/internal/logging"
	"promocut/internal/segment"
	"promocut/internal/services"
	"promocut/internal/similarity"
	"promocut/internal/textutil"
)

// Mode selects dimension-tree or flat keyword scoring.
type Mode string

const (
	ModeDimension Mode = "dimension"
	ModeKeyword   Mode = "keyword"
)

// Descent selects how deeper levels are searched.
type Descent string

const (
	DescentGreedy     Descent = "greedy"
	DescentExhaustive Descent = "exhaustive"
)

// LiteralKeywordScore is assigned when a keyword appears verbatim in the
// segment but its similarity falls below the keyword threshold.
const LiteralKeywordScore = 0.85

// DefaultLevelWeights are the combined-score contributions of levels 1..3.
var DefaultLevelWeights = [MaxDepth]float64{0.5, 0.3, 0.2}

// Options configures a Scorer.
type Options struct {
	Mode             Mode
	Descent          Descent
	LevelWeights     [MaxDepth]float64
	KeywordThreshold float64
}

// DefaultOptions returns greedy dimension scoring with the standard level weights.
func DefaultOptions() Options {
	return Options{
		Mode:             ModeDimension,
		Descent:          DescentGreedy,
		LevelWeights:     DefaultLevelWeights,
		KeywordThreshold: 0.3,
	}
}

// OptionsFromConfig reads the [scoring] section.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Mode:             Mode(cfg.Scoring.Mode),
		Descent:          Descent(cfg.Scoring.Descent),
		LevelWeights:     DefaultLevelWeights,
		KeywordThreshold: cfg.Scoring.KeywordThreshold,
	}
	copy(opts.LevelWeights[:], cfg.Scoring.LevelWeights)
	return opts
}

// Scorer computes ScoredSegments.
type Scorer struct {
	tree   *Tree
	sim    similarity.Scorer
	opts   Options
	logger *slog.Logger
}

// NewScorer constructs a Scorer. In keyword mode the tree's level-1 nodes are the keywords.
func NewScorer(tree *Tree, sim similarity.Scorer, opts Options, logger *slog.Logger) (*Scorer, error) {
	if tree.Len() == 0 {
		return nil, services.Wrap(services.ErrMissingInput, "dimensions", "new scorer", "No dimensions or keywords to score against", nil)
	}
	if sim == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dimensions", "new scorer", "Similarity capability not configured", nil)
	}
	tree.link()
	if opts.Mode == "" {
		opts.Mode = ModeDimension
	}
	if opts.Descent == "" {
		opts.Descent = DescentGreedy
	}
	return &Scorer{tree: tree, sim: sim, opts: opts, logger: logging.NewComponentLogger(logger, "scorer")}, nil
}

// Tree returns the taxonomy being scored against.
func (s *Scorer) Tree() *Tree { return s.tree }

// ScoreAll scores segments in order. The first similarity failure aborts.
func (s *Scorer) ScoreAll(ctx context.Context, segments []segment.Segment) ([]ScoredSegment, error) {
	out := make([]ScoredSegment, 0, len(segments))
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCanceled, "dimensions", "score", "Scoring canceled", err)
		}
		scored, err := s.Score(ctx, seg)
		if err != nil {
			return nil, services.WithSourceID(err, seg.SourceID)
		}
		out = append(out, scored)
	}
	return out, nil
}

// Score scores one segment.
func (s *Scorer) Score(ctx context.Context, seg segment.Segment) (ScoredSegment, error) {
	if s.opts.Mode == ModeKeyword {
		return s.scoreKeywords(ctx, seg)
	}
	return s.scoreDimensions(ctx, seg)
}

func (s *Scorer) scoreDimensions(ctx context.Context, seg segment.Segment) (ScoredSegment, error) {
	text := textutil.Normalize(seg.Text)
	out := ScoredSegment{Segment: seg, Category: NoCategory}
	for i := range out.Levels {
		out.Levels[i] = noMatch()
	}

	level1, winner, err := s.best(ctx, text, s.tree.Roots)
	if err != nil {
		return ScoredSegment{}, err
	}
	out.Levels[0] = level1

	switch s.opts.Descent {
	case DescentExhaustive:
		for level := 2; level <= MaxDepth; level++ {
			match, _, err := s.best(ctx, text, s.tree.Level(level))
			if err != nil {
				return ScoredSegment{}, err
			}
			out.Levels[level-1] = match
		}
	default:
		current := winner
		for level := 2; level <= MaxDepth && current != nil; level++ {
			match, next, err := s.best(ctx, text, current.Children)
			if err != nil {
				return ScoredSegment{}, err
			}
			out.Levels[level-1] = match
			current = next
		}
	}

	if winner != nil {
		out.Category = winner.Name
	}
	for i, match := range out.Levels {
		if match.Matched() {
			out.Combined += s.opts.LevelWeights[i] * match.WeightedScore
		}
	}
	return out, nil
}

// best returns the node with the highest weighted score; the first wins ties.
// A node whose raw score is zero never wins.
func (s *Scorer) best(ctx context.Context, text string, nodes []*Node) (LevelMatch, *Node, error) {
	match := noMatch()
	var winner *Node
	for _, node := range nodes {
		raw, err := s.average(ctx, text, node.Keywords)
		if err != nil {
			return LevelMatch{}, nil, err
		}
		if raw <= 0 {
			continue
		}
		weighted := raw * node.EffectiveWeight()
		if winner == nil || weighted > match.WeightedScore {
			winner = node
			match = LevelMatch{NodeID: node.Path(), NodeName: node.Name, RawScore: raw, WeightedScore: weighted}
		}
	}
	return match, winner, nil
}

func (s *Scorer) average(ctx context.Context, text string, keywords []string) (float64, error) {
	if len(keywords) == 0 {
		return 0, nil
	}
	var total float64
	for _, kw := range keywords {
		score, err := s.sim.Similarity(ctx, text, textutil.Normalize(kw))
		if err != nil {
			return 0, fmt.Errorf("similarity for keyword %q: %w", kw, err)
		}
		total += similarity.Clamp(score)
	}
	return total / float64(len(keywords)), nil
}

// scoreKeywords matches each level-1 node's name as a keyword. The best
// keyword becomes the category and its score the combined score.
func (s *Scorer) scoreKeywords(ctx context.Context, seg segment.Segment) (ScoredSegment, error) {
	text := textutil.Normalize(seg.Text)
	out := ScoredSegment{Segment: seg, Category: NoCategory}
	for i := range out.Levels {
		out.Levels[i] = noMatch()
	}
	for _, node := range s.tree.Roots {
		keyword := node.Name
		raw, err := s.sim.Similarity(ctx, text, textutil.Normalize(keyword))
		if err != nil {
			return ScoredSegment{}, fmt.Errorf("similarity for keyword %q: %w", keyword, err)
		}
		raw = similarity.Clamp(raw)
		match := KeywordMatch{Keyword: keyword, Score: raw}
		if raw < s.opts.KeywordThreshold {
			if !textutil.ContainsFold(seg.Text, keyword) {
				continue
			}
			match.Score = LiteralKeywordScore
			match.Literal = true
		}
		out.Keywords = append(out.Keywords, match)
		if !out.Levels[0].Matched() || match.Score > out.Levels[0].RawScore {
			out.Levels[0] = LevelMatch{NodeID: node.Path(), NodeName: keyword, RawScore: match.Score, WeightedScore: match.Score}
			out.Category = keyword
			out.Combined = match.Score
		}
	}
	return out, nil
}
