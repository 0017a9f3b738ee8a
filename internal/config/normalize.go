package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScoring()
	c.normalizeDiversity()
	c.normalizeSequence()
	c.normalizeMedia()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScoring() {
	c.Scoring.Mode = strings.ToLower(strings.TrimSpace(c.Scoring.Mode))
	if c.Scoring.Mode == "" {
		c.Scoring.Mode = defaultScoringMode
	}
	c.Scoring.Descent = strings.ToLower(strings.TrimSpace(c.Scoring.Descent))
	if c.Scoring.Descent == "" {
		c.Scoring.Descent = defaultScoringDescent
	}
	c.Scoring.Similarity = strings.ToLower(strings.TrimSpace(c.Scoring.Similarity))
	if c.Scoring.Similarity == "" {
		c.Scoring.Similarity = defaultSimilarity
	}
	if len(c.Scoring.LevelWeights) == 0 {
		c.Scoring.LevelWeights = append([]float64(nil), DefaultLevelWeights...)
	}
	c.Scoring.Keywords = dedupeTrimmed(c.Scoring.Keywords, false)
}

func (c *Config) normalizeDiversity() {
	c.Diversity.BrandKeywords = dedupeTrimmed(c.Diversity.BrandKeywords, true)
	if c.Diversity.CandidatesPerStage <= 0 {
		c.Diversity.CandidatesPerStage = defaultCandidatesPerStage
	}
}

func (c *Config) normalizeSequence() {
	c.Sequence.EndStyle = strings.ToLower(strings.TrimSpace(c.Sequence.EndStyle))
	switch c.Sequence.EndStyle {
	case "simple", "dynamic", "business", "warm", "modern":
	default:
		c.Sequence.EndStyle = defaultEndStyle
	}
	c.Sequence.Slogan = strings.TrimSpace(c.Sequence.Slogan)
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		if value, ok := os.LookupEnv("PROMOCUT_OPENAI_BASE_URL"); ok {
			c.LLM.BaseURL = strings.TrimSpace(value)
		}
	}
	c.LLM.EmbeddingModel = strings.TrimSpace(c.LLM.EmbeddingModel)
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = defaultEmbeddingModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeTrimmed(values []string, fold bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := trimmed
		if fold {
			key = strings.ToLower(trimmed)
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
