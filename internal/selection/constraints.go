package selection

import (
	"promocut/internal/config"
	"promocut/internal/services"
)

// Constraints bounds what the selector may accept.
type Constraints struct {
	ScoreThreshold        float64 `json:"score_threshold" validate:"gte=0,lte=1"`
	MaxPerCategory        int     `json:"max_per_category" validate:"gte=1"`
	OverlapRatioThreshold float64 `json:"overlap_ratio_threshold" validate:"gte=0,lte=1"`
	MinClipDuration       float64 `json:"min_clip_duration" validate:"gt=0"`
	MaxClipDuration       float64 `json:"max_clip_duration" validate:"gtefield=MinClipDuration"`
	TotalClipsLimit       int     `json:"total_clips_limit" validate:"gte=1"`
	TargetDuration        float64 `json:"target_duration" validate:"gt=0"`
	DurationTolerance     float64 `json:"duration_tolerance" validate:"gte=0"`
}

// DefaultConstraints mirrors the [selection] defaults.
func DefaultConstraints() Constraints {
	cfg := config.Default()
	return ConstraintsFromConfig(&cfg)
}

// ConstraintsFromConfig copies the [selection] section.
func ConstraintsFromConfig(cfg *config.Config) Constraints {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	s := cfg.Selection
	return Constraints{
		ScoreThreshold:        s.ScoreThreshold,
		MaxPerCategory:        s.MaxPerCategory,
		OverlapRatioThreshold: s.OverlapRatioThreshold,
		MinClipDuration:       s.MinClipDuration,
		MaxClipDuration:       s.MaxClipDuration,
		TotalClipsLimit:       s.TotalClipsLimit,
		TargetDuration:        s.TargetDuration,
		DurationTolerance:     s.DurationTolerance,
	}
}

// Validate reports constraint values that can never be satisfied.
func (c Constraints) Validate() error {
	return services.ValidateStruct("selection", c)
}

// Window returns the accepted total-duration range.
func (c Constraints) Window() (lower, upper float64) {
	return c.TargetDuration - c.DurationTolerance, c.TargetDuration + c.DurationTolerance
}

func (c Constraints) clipFits(duration float64) bool {
	return duration >= c.MinClipDuration && duration <= c.MaxClipDuration
}
