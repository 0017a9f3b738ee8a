package diversity

import (
	"strings"

	"promocut/internal/config"
	"promocut/internal/segment"
	"promocut/internal/services"
	"promocut/internal/textutil"
)

// Relaxed-threshold parameters for pass 2. Similarities are on a 0-100 scale.
const (
	RelaxedFloor = 30.0
	RelaxedRatio = 0.65
)

// Stage is one position of the reference cut.
type Stage struct {
	ID        int     `json:"stage_id"`
	Start     float64 `json:"start_seconds"`
	End       float64 `json:"end_seconds"`
	Text      string  `json:"text"`
	Protected bool    `json:"protected"`
}

// Duration returns End - Start.
func (s Stage) Duration() float64 { return s.End - s.Start }

// MatchCandidate is a window of a candidate source scored against a stage.
type MatchCandidate struct {
	StageID     int     `json:"stage_id"`
	SourceID    string  `json:"source_id"`
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`
	Similarity  float64 `json:"similarity"`
	Duration    float64 `json:"duration"`
	Text        string  `json:"text,omitempty"`
}

// Options tunes candidate generation and matching.
type Options struct {
	MinDiversityRequirement int      `json:"min_diversity_requirement" validate:"gte=1"`
	CandidatesPerStage      int      `json:"candidates_per_stage" validate:"gte=1"`
	WindowMinRatio          float64  `json:"window_min_ratio" validate:"gt=0"`
	WindowMaxRatio          float64  `json:"window_max_ratio" validate:"gtefield=WindowMinRatio"`
	MinWindowSeconds        float64  `json:"min_window_seconds" validate:"gt=0"`
	MaxWindowSeconds        float64  `json:"max_window_seconds" validate:"gtefield=MinWindowSeconds"`
	BrandKeywords           []string `json:"brand_keywords"`
}

// DefaultMinWindowSeconds is the shortest candidate window considered.
const DefaultMinWindowSeconds = 1.0

// OptionsFromConfig reads the [diversity] section; the window ceiling comes
// from [selection].max_clip_duration.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	d := cfg.Diversity
	return Options{
		MinDiversityRequirement: d.MinDiversityRequirement,
		CandidatesPerStage:      d.CandidatesPerStage,
		WindowMinRatio:          d.WindowMinRatio,
		WindowMaxRatio:          d.WindowMaxRatio,
		MinWindowSeconds:        DefaultMinWindowSeconds,
		MaxWindowSeconds:        cfg.Selection.MaxClipDuration,
		BrandKeywords:           append([]string(nil), d.BrandKeywords...),
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	return services.ValidateStruct("diversity", o)
}

// windowBounds returns the admissible window length range for a stage.
func (o Options) windowBounds(stage Stage) (float64, float64) {
	d := stage.Duration()
	lo := max(d*o.WindowMinRatio, o.MinWindowSeconds)
	hi := max(min(d*o.WindowMaxRatio, o.MaxWindowSeconds), lo)
	return lo, hi
}

// StagesFromSegments numbers reference segments as stages. The last stage and
// any stage mentioning a brand keyword are protected.
func StagesFromSegments(segments []segment.Segment, brandKeywords []string) []Stage {
	stages := make([]Stage, 0, len(segments))
	for i, seg := range segments {
		stages = append(stages, Stage{
			ID:        i + 1,
			Start:     seg.Start,
			End:       seg.End,
			Text:      seg.Text,
			Protected: i == len(segments)-1 || mentionsBrand(seg.Text, brandKeywords),
		})
	}
	return stages
}

func mentionsBrand(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" && textutil.ContainsFold(text, kw) {
			return true
		}
	}
	return false
}
