package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateDiversity(); err != nil {
		return err
	}
	if err := c.validateSequence(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("retry.attempts must be positive")
	}
	if c.Workflow.MaxConcurrency <= 0 {
		return errors.New("workflow.max_concurrency must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if c.Segmenter.MinSegmentLength < 0 {
		return errors.New("segmenter.min_segment_length must be >= 0")
	}
	if c.Segmenter.MergeGapSeconds < 0 {
		return errors.New("segmenter.merge_gap_seconds must be >= 0")
	}
	if c.Segmenter.SplitGapSeconds <= 0 {
		return errors.New("segmenter.split_gap_seconds must be positive")
	}
	return nil
}

func (c *Config) validateScoring() error {
	switch c.Scoring.Mode {
	case "dimension", "keyword":
	default:
		return fmt.Errorf("scoring.mode: unsupported value %q (want dimension or keyword)", c.Scoring.Mode)
	}
	switch c.Scoring.Descent {
	case "greedy", "exhaustive":
	default:
		return fmt.Errorf("scoring.descent: unsupported value %q (want greedy or exhaustive)", c.Scoring.Descent)
	}
	switch c.Scoring.Similarity {
	case "lexical", "embedding":
	default:
		return fmt.Errorf("scoring.similarity: unsupported value %q (want lexical or embedding)", c.Scoring.Similarity)
	}
	if len(c.Scoring.LevelWeights) != 3 {
		return fmt.Errorf("scoring.level_weights must have 3 entries, got %d", len(c.Scoring.LevelWeights))
	}
	for i, w := range c.Scoring.LevelWeights {
		if w < 0 || w > 1 {
			return fmt.Errorf("scoring.level_weights[%d] must be between 0 and 1", i)
		}
	}
	if c.Scoring.KeywordThreshold < 0 || c.Scoring.KeywordThreshold > 1 {
		return errors.New("scoring.keyword_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSelection() error {
	s := c.Selection
	if s.ScoreThreshold < 0 || s.ScoreThreshold > 1 {
		return errors.New("selection.score_threshold must be between 0 and 1")
	}
	if s.OverlapRatioThreshold < 0 || s.OverlapRatioThreshold > 1 {
		return errors.New("selection.overlap_ratio_threshold must be between 0 and 1")
	}
	if err := ensurePositiveMap(map[string]int{
		"selection.max_per_category":  s.MaxPerCategory,
		"selection.total_clips_limit": s.TotalClipsLimit,
	}); err != nil {
		return err
	}
	if s.MinClipDuration <= 0 || s.MaxClipDuration < s.MinClipDuration {
		return errors.New("selection.min_clip_duration must be positive and not exceed selection.max_clip_duration")
	}
	if s.TargetDuration <= 0 {
		return errors.New("selection.target_duration must be positive")
	}
	if s.DurationTolerance < 0 {
		return errors.New("selection.duration_tolerance must be >= 0")
	}
	return nil
}

func (c *Config) validateDiversity() error {
	if c.Diversity.MinDiversityRequirement < 1 {
		return errors.New("diversity.min_diversity_requirement must be >= 1")
	}
	if c.Diversity.WindowMinRatio <= 0 || c.Diversity.WindowMaxRatio < c.Diversity.WindowMinRatio {
		return errors.New("diversity.window_min_ratio must be positive and not exceed diversity.window_max_ratio")
	}
	return nil
}

func (c *Config) validateSequence() error {
	if c.Sequence.MinDuration <= 0 || c.Sequence.MaxDuration < c.Sequence.MinDuration {
		return errors.New("sequence.min_duration must be positive and not exceed sequence.max_duration")
	}
	if c.Sequence.EndSlateSeconds < 0 {
		return errors.New("sequence.end_slate_seconds must be >= 0")
	}
	if c.Sequence.TransitionSeconds < 0 {
		return errors.New("sequence.transition_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateMedia() error {
	return ensurePositiveMap(map[string]int{
		"media.max_concurrency": c.Media.MaxConcurrency,
		"media.width":           c.Media.Width,
		"media.height":          c.Media.Height,
		"media.fps":             c.Media.FPS,
		"media.timeout_seconds": c.Media.TimeoutSeconds,
	})
}

func (c *Config) validateLLM() error {
	if c.Scoring.Similarity != "embedding" {
		return nil
	}
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required for embedding similarity. Set OPENAI_API_KEY or edit %s (create with 'promocut config init')", defaultPath)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
