package selection

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"promocut/internal/dimension"
	"promocut/internal/logging"
	"promocut/internal/segment"
	"promocut/internal/services"
)

const durationEpsilon = 1e-9

// Result is the ordered selected set plus its duration bookkeeping.
type Result struct {
	Segments       []dimension.ScoredSegment `json:"segments"`
	TotalDuration  float64                   `json:"total_duration"`
	TargetDuration float64                   `json:"target_duration"`
	Tolerance      float64                   `json:"tolerance"`
	Shortfall      bool                      `json:"shortfall"`
	Sample         bool                      `json:"sample"`
}

// Empty reports whether nothing cleared the score threshold.
func (r Result) Empty() bool { return len(r.Segments) == 0 }

// Err returns ErrConstraintUnsatisfiable when the duration window was missed.
func (r Result) Err() error {
	if !r.Shortfall {
		return nil
	}
	return services.Wrap(services.ErrConstraintUnsatisfiable, "selection", "reconcile duration",
		fmt.Sprintf("Selected %.1fs, target %.1fs +/- %.1fs", r.TotalDuration, r.TargetDuration, r.Tolerance), nil)
}

// Selector applies Constraints to scored segments.
type Selector struct {
	constraints Constraints
	logger      *slog.Logger
}

// NewSelector validates the constraints and returns a Selector.
func NewSelector(c Constraints, logger *slog.Logger) (*Selector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Selector{constraints: c, logger: logging.NewComponentLogger(logger, "selector")}, nil
}

// Constraints returns the active constraints.
func (s *Selector) Constraints() Constraints { return s.constraints }

type candidate struct {
	pos int
	seg dimension.ScoredSegment
}

func (c candidate) duration() float64 { return c.seg.Duration() }

// byScoreDesc orders by combined score; equal scores keep input order.
func byScoreDesc(a, b candidate) int {
	switch {
	case a.seg.Combined > b.seg.Combined:
		return -1
	case a.seg.Combined < b.seg.Combined:
		return 1
	default:
		return a.pos - b.pos
	}
}

// Select returns the selected set. The input is not modified. An input with
// nothing above the score threshold yields an empty Result and no error.
func (s *Selector) Select(scored []dimension.ScoredSegment) Result {
	c := s.constraints
	result := Result{TargetDuration: c.TargetDuration, Tolerance: c.DurationTolerance}

	eligible, order, groups := s.group(scored)
	if len(eligible) == 0 {
		s.logger.Info("no segments cleared score threshold",
			logging.Float64("score_threshold", c.ScoreThreshold),
			logging.Int("scored", len(scored)),
		)
		return result
	}

	var accepted []candidate
	for _, category := range order {
		taken := 0
		for _, cand := range groups[category] {
			if taken >= c.MaxPerCategory {
				break
			}
			if reason, ok := s.admissible(cand, accepted); !ok {
				s.decision(cand, "rejected", reason)
				continue
			}
			accepted = append(accepted, cand)
			taken++
			s.decision(cand, "accepted", "within constraints")
		}
	}

	if len(accepted) > c.TotalClipsLimit {
		slices.SortStableFunc(accepted, byScoreDesc)
		for _, cand := range accepted[c.TotalClipsLimit:] {
			s.decision(cand, "dropped", "total clip limit")
		}
		accepted = accepted[:c.TotalClipsLimit]
	}

	accepted = s.reconcile(accepted, eligible)

	total := 0.0
	result.Segments = make([]dimension.ScoredSegment, 0, len(accepted))
	for _, cand := range accepted {
		result.Segments = append(result.Segments, cand.seg)
		total += cand.duration()
		result.Sample = result.Sample || cand.seg.Sample
	}
	result.TotalDuration = total
	lower, upper := c.Window()
	result.Shortfall = total < lower-durationEpsilon || total > upper+durationEpsilon

	s.logger.Info("selection complete",
		logging.Int("eligible", len(eligible)),
		logging.Int("selected", len(result.Segments)),
		logging.Float64("total_duration", total),
		logging.Bool("shortfall", result.Shortfall),
	)
	return result
}

// group filters by threshold and buckets by category in first-seen order.
func (s *Selector) group(scored []dimension.ScoredSegment) ([]candidate, []string, map[string][]candidate) {
	var eligible []candidate
	var order []string
	groups := make(map[string][]candidate)
	for i, seg := range scored {
		if seg.Combined < s.constraints.ScoreThreshold || seg.Category == "" || seg.Category == dimension.NoCategory {
			continue
		}
		cand := candidate{pos: i, seg: seg}
		eligible = append(eligible, cand)
		if _, seen := groups[seg.Category]; !seen {
			order = append(order, seg.Category)
		}
		groups[seg.Category] = append(groups[seg.Category], cand)
	}
	for _, category := range order {
		slices.SortStableFunc(groups[category], byScoreDesc)
	}
	return eligible, order, groups
}

func (s *Selector) admissible(cand candidate, accepted []candidate) (string, bool) {
	if !s.constraints.clipFits(cand.duration()) {
		return "clip duration out of range", false
	}
	for _, other := range accepted {
		if Overlaps(cand.seg.Segment, other.seg.Segment, s.constraints.OverlapRatioThreshold) {
			return "overlaps accepted segment", false
		}
	}
	return "", true
}

// reconcile trims or backfills toward the duration window.
func (s *Selector) reconcile(accepted, eligible []candidate) []candidate {
	lower, upper := s.constraints.Window()
	total := totalDuration(accepted)

	for total > upper+durationEpsilon && len(accepted) > 1 {
		drop := lowestScored(accepted)
		s.decision(accepted[drop], "dropped", "total duration above window")
		total -= accepted[drop].duration()
		accepted = slices.Delete(accepted, drop, drop+1)
	}
	if total >= lower-durationEpsilon {
		return accepted
	}

	inSet := make(map[int]struct{}, len(accepted))
	for _, cand := range accepted {
		inSet[cand.pos] = struct{}{}
	}
	pool := make([]candidate, 0, len(eligible))
	for _, cand := range eligible {
		if _, ok := inSet[cand.pos]; !ok {
			pool = append(pool, cand)
		}
	}
	slices.SortStableFunc(pool, byScoreDesc)

	for _, cand := range pool {
		if total >= lower-durationEpsilon || len(accepted) >= s.constraints.TotalClipsLimit {
			break
		}
		if total+cand.duration() > upper+durationEpsilon {
			continue
		}
		if _, ok := s.admissible(cand, accepted); !ok {
			continue
		}
		accepted = append(accepted, cand)
		total += cand.duration()
		s.decision(cand, "backfilled", "total duration below window")
	}
	return accepted
}

// lowestScored returns the index of the lowest-scored member; among equal
// scores the latest one is chosen.
func lowestScored(cands []candidate) int {
	idx := 0
	for i := 1; i < len(cands); i++ {
		if byScoreDesc(cands[i], cands[idx]) > 0 {
			idx = i
		}
	}
	return idx
}

func totalDuration(cands []candidate) float64 {
	total := 0.0
	for _, cand := range cands {
		total += cand.duration()
	}
	return total
}

func (s *Selector) decision(cand candidate, result, reason string) {
	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := logging.DecisionAttrs("segment_selection", result, reason)
	attrs = append(attrs,
		logging.String(logging.FieldSourceID, cand.seg.SourceID),
		logging.String(logging.FieldCategory, cand.seg.Category),
		logging.Float64("combined", cand.seg.Combined),
	)
	attrs = append(attrs, logging.TimeRange(cand.seg.Start, cand.seg.End)...)
	s.logger.Debug("segment decision", logging.Args(attrs...)...)
}

// OverlapRatio returns the shared duration of a and b divided by the shorter
// of the two, or 0 when they come from different sources or do not intersect.
func OverlapRatio(a, b segment.Segment) float64 {
	if a.SourceID != b.SourceID {
		return 0
	}
	shared := min(a.End, b.End) - max(a.Start, b.Start)
	if shared <= 0 {
		return 0
	}
	ratio := 0.0
	if d := a.Duration(); d > 0 {
		ratio = shared / d
	}
	if d := b.Duration(); d > 0 {
		ratio = max(ratio, shared/d)
	}
	return ratio
}

// Overlaps reports whether a and b share a source and their overlap ratio,
// measured against either segment, exceeds threshold.
func Overlaps(a, b segment.Segment, threshold float64) bool {
	return OverlapRatio(a, b) > threshold
}
