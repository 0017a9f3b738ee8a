package workflow

import (
	"promocut/internal/stage"
)

// Pipeline step numbers.
const (
	StepSubtitles = iota + 1
	StepDimensions
	StepReview
	StepMatching
	StepClips
	StepAssembly

	FirstStep = StepSubtitles
	LastStep  = StepAssembly
)

// StageSet bundles the concrete handlers the runner orchestrates.
type StageSet struct {
	Subtitles  stage.Handler
	Dimensions stage.Handler
	Review     stage.Handler
	Matching   stage.Handler
	Clips      stage.Handler
	Assembly   stage.Handler
}

// NewStageSet builds the standard handlers over env.
func NewStageSet(env *Env) StageSet {
	return StageSet{
		Subtitles:  NewSubtitleStage(env),
		Dimensions: NewDimensionStage(env),
		Review:     NewReviewStage(env),
		Matching:   NewMatchingStage(env),
		Clips:      NewClipStage(env),
		Assembly:   NewAssemblyStage(env),
	}
}

// Registry registers every non-nil handler under its step number.
func (s StageSet) Registry() (*stage.Registry, error) {
	reg := stage.NewRegistry()
	for _, entry := range []struct {
		number  int
		handler stage.Handler
	}{
		{StepSubtitles, s.Subtitles},
		{StepDimensions, s.Dimensions},
		{StepReview, s.Review},
		{StepMatching, s.Matching},
		{StepClips, s.Clips},
		{StepAssembly, s.Assembly},
	} {
		if entry.handler == nil {
			continue
		}
		if err := reg.Register(entry.number, entry.handler); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
