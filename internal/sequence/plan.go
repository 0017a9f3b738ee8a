package sequence

import (
	"fmt"
	"log/slog"
	"slices"

	"promocut/internal/config"
	"promocut/internal/dimension"
	"promocut/internal/diversity"
	"promocut/internal/logging"
	"promocut/internal/services"
)

// Role distinguishes main-sequence entries from the closing card.
type Role string

const (
	RoleMain     Role = "main"
	RoleEndSlate Role = "end_slate"
)

// MinRemainingSeconds is the shortest trimmed entry kept when clamping to a
// reference duration; a smaller remainder ends the sequence.
const MinRemainingSeconds = 1.0

// Entry is one item of the playback plan.
type Entry struct {
	SourceID      string  `json:"source_id"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Duration      float64 `json:"duration"`
	Category      string  `json:"category,omitempty"`
	StageID       int     `json:"stage_id,omitempty"`
	Score         float64 `json:"score"`
	Role          Role    `json:"role"`
	TransitionIn  float64 `json:"transition_in"`
	TransitionOut float64 `json:"transition_out"`
	ClipPath      string  `json:"clip_path,omitempty"`
	Sample        bool    `json:"sample,omitempty"`
}

// Plan is an ordered playback plan.
type Plan struct {
	Entries       []Entry `json:"entries"`
	TotalDuration float64 `json:"total_duration"`
	MinDuration   float64 `json:"min_duration"`
	MaxDuration   float64 `json:"max_duration"`
	WithinBounds  bool    `json:"within_bounds"`
}

// Main returns the non end-slate entries.
func (p Plan) Main() []Entry {
	out := make([]Entry, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.Role == RoleMain {
			out = append(out, e)
		}
	}
	return out
}

// EndSlate returns the closing card entry, if present.
func (p Plan) EndSlate() (Entry, bool) {
	for _, e := range p.Entries {
		if e.Role == RoleEndSlate {
			return e, true
		}
	}
	return Entry{}, false
}

// ContainsSample reports whether any entry came from sample data.
func (p Plan) ContainsSample() bool {
	return slices.ContainsFunc(p.Entries, func(e Entry) bool { return e.Sample })
}

// Options configures a Planner.
type Options struct {
	MinDuration       float64 `json:"min_duration" validate:"gte=0"`
	MaxDuration       float64 `json:"max_duration" validate:"gtefield=MinDuration"`
	EndSlateSeconds   float64 `json:"end_slate_seconds" validate:"gte=0"`
	TransitionSeconds float64 `json:"transition_seconds" validate:"gte=0"`
	// ReferenceDuration caps remix plans when positive.
	ReferenceDuration float64 `json:"reference_duration" validate:"gte=0"`
}

// OptionsFromConfig reads the [sequence] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	s := cfg.Sequence
	return Options{
		MinDuration:       s.MinDuration,
		MaxDuration:       s.MaxDuration,
		EndSlateSeconds:   s.EndSlateSeconds,
		TransitionSeconds: s.TransitionSeconds,
	}
}

// Planner builds Plans.
type Planner struct {
	opts   Options
	logger *slog.Logger
}

// NewPlanner validates opts and returns a Planner.
func NewPlanner(opts Options, logger *slog.Logger) (*Planner, error) {
	if err := services.ValidateStruct("sequence", opts); err != nil {
		return nil, err
	}
	return &Planner{opts: opts, logger: logging.NewComponentLogger(logger, "planner")}, nil
}

// FromSelection groups segments by category following categoryOrder, then by
// first appearance for categories missing from it, and sorts each group by
// combined score. An end-slate entry closes the plan when configured.
func (p *Planner) FromSelection(segments []dimension.ScoredSegment, categoryOrder []string) Plan {
	groups := make(map[string][]dimension.ScoredSegment)
	var seen []string
	for _, seg := range segments {
		if _, ok := groups[seg.Category]; !ok {
			seen = append(seen, seg.Category)
		}
		groups[seg.Category] = append(groups[seg.Category], seg)
	}

	order := make([]string, 0, len(seen))
	placed := make(map[string]bool, len(seen))
	for _, category := range categoryOrder {
		if _, ok := groups[category]; ok && !placed[category] {
			order = append(order, category)
			placed[category] = true
		}
	}
	for _, category := range seen {
		if !placed[category] {
			order = append(order, category)
			placed[category] = true
		}
	}

	var entries []Entry
	for _, category := range order {
		group := groups[category]
		slices.SortStableFunc(group, func(a, b dimension.ScoredSegment) int {
			switch {
			case a.Combined > b.Combined:
				return -1
			case a.Combined < b.Combined:
				return 1
			default:
				return 0
			}
		})
		for _, seg := range group {
			entries = append(entries, Entry{
				SourceID: seg.SourceID,
				Start:    seg.Start,
				End:      seg.End,
				Duration: seg.Duration(),
				Category: seg.Category,
				Score:    seg.Combined,
				Role:     RoleMain,
				Sample:   seg.Sample,
			})
		}
	}
	p.applyTransitions(entries)
	if len(entries) > 0 && p.opts.EndSlateSeconds > 0 {
		entries = append(entries, Entry{
			Start:         0,
			End:           p.opts.EndSlateSeconds,
			Duration:      p.opts.EndSlateSeconds,
			Role:          RoleEndSlate,
			TransitionIn:  p.opts.TransitionSeconds,
			TransitionOut: p.opts.TransitionSeconds,
		})
	}
	return p.finish(entries)
}

// FromMatches emits one entry per assigned stage in stage order. With a
// positive ReferenceDuration an entry that would overrun it is trimmed to the
// remaining time, and planning stops once less than MinRemainingSeconds is left.
func (p *Planner) FromMatches(stages []diversity.Stage, matches diversity.Plan) Plan {
	ordered := slices.Clone(stages)
	slices.SortStableFunc(ordered, func(a, b diversity.Stage) int { return a.ID - b.ID })

	var entries []Entry
	total := 0.0
	for _, stage := range ordered {
		c, ok := matches.Assignments[stage.ID]
		if !ok {
			continue
		}
		entry := Entry{
			SourceID: c.SourceID,
			Start:    c.WindowStart,
			End:      c.WindowEnd,
			Duration: c.WindowEnd - c.WindowStart,
			StageID:  stage.ID,
			Score:    c.Similarity,
			Role:     RoleMain,
		}
		if ref := p.opts.ReferenceDuration; ref > 0 && total+entry.Duration > ref {
			remaining := ref - total
			if remaining < MinRemainingSeconds {
				p.logger.Info("reference duration reached",
					logging.Int("stage_id", stage.ID),
					logging.Float64("remaining_seconds", remaining),
				)
				break
			}
			entry.End = entry.Start + remaining
			entry.Duration = remaining
			p.logger.Debug("entry trimmed to reference duration",
				logging.Int("stage_id", stage.ID),
				logging.Float64("duration", remaining),
			)
		}
		total += entry.Duration
		entries = append(entries, entry)
	}
	p.applyTransitions(entries)
	return p.finish(entries)
}

// applyTransitions sets fades by position: the first entry fades in, the last
// fades out, interior entries do both. A lone entry fades both ways.
func (p *Planner) applyTransitions(entries []Entry) {
	t := p.opts.TransitionSeconds
	n := len(entries)
	for i := range entries {
		entries[i].TransitionIn, entries[i].TransitionOut = 0, 0
		if i < n-1 || n == 1 {
			entries[i].TransitionIn = t
		}
		if i > 0 || n == 1 {
			entries[i].TransitionOut = t
		}
	}
}

func (p *Planner) finish(entries []Entry) Plan {
	plan := Plan{Entries: entries, MinDuration: p.opts.MinDuration, MaxDuration: p.opts.MaxDuration}
	for _, e := range entries {
		plan.TotalDuration += e.Duration
	}
	plan.WithinBounds = plan.TotalDuration >= p.opts.MinDuration && plan.TotalDuration <= p.opts.MaxDuration
	if !plan.WithinBounds {
		logging.WarnWithContext(p.logger, "sequence duration outside bounds", "sequence_bounds",
			logging.Float64("total_duration", plan.TotalDuration),
			logging.String("bounds", fmt.Sprintf("[%.1f, %.1f]", p.opts.MinDuration, p.opts.MaxDuration)),
			logging.String(logging.FieldImpact, "final cut length differs from the configured window"),
		)
	}
	return plan
}
