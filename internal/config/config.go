package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"promocut/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output directory configuration.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
}

// Segmenter controls how subtitle lines are grouped into segments.
type Segmenter struct {
	MinSegmentLength int     `toml:"min_segment_length"`
	MergeGapSeconds  float64 `toml:"merge_gap_seconds"`
	SplitGapSeconds  float64 `toml:"split_gap_seconds"`
}

// Scoring controls dimension and keyword scoring.
type Scoring struct {
	// Mode is "dimension" or "keyword".
	Mode string `toml:"mode"`
	// Descent is "greedy" (only the level-1 winner's branch) or "exhaustive".
	Descent          string    `toml:"descent"`
	LevelWeights     []float64 `toml:"level_weights"`
	KeywordThreshold float64   `toml:"keyword_threshold"`
	Keywords         []string  `toml:"keywords"`
	// Similarity is "lexical" or "embedding".
	Similarity   string `toml:"similarity"`
	CacheEnabled bool   `toml:"cache_enabled"`
}

// Selection mirrors the selection constraints applied to scored segments.
type Selection struct {
	ScoreThreshold        float64 `toml:"score_threshold"`
	MaxPerCategory        int     `toml:"max_per_category"`
	OverlapRatioThreshold float64 `toml:"overlap_ratio_threshold"`
	MinClipDuration       float64 `toml:"min_clip_duration"`
	MaxClipDuration       float64 `toml:"max_clip_duration"`
	TotalClipsLimit       int     `toml:"total_clips_limit"`
	TargetDuration        float64 `toml:"target_duration"`
	DurationTolerance     float64 `toml:"duration_tolerance"`
}

// Diversity controls the multi-source remix matcher.
type Diversity struct {
	MinDiversityRequirement int      `toml:"min_diversity_requirement"`
	CandidatesPerStage      int      `toml:"candidates_per_stage"`
	BrandKeywords           []string `toml:"brand_keywords"`
	WindowMinRatio          float64  `toml:"window_min_ratio"`
	WindowMaxRatio          float64  `toml:"window_max_ratio"`
}

// Sequence controls final ordering and end slate rendering.
type Sequence struct {
	MinDuration       float64 `toml:"min_duration"`
	MaxDuration       float64 `toml:"max_duration"`
	EndSlateSeconds   float64 `toml:"end_slate_seconds"`
	TransitionSeconds float64 `toml:"transition_seconds"`
	EndStyle          string  `toml:"end_style"`
	Slogan            string  `toml:"slogan"`
}

// Media contains media engine settings.
type Media struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	MaxConcurrency int    `toml:"max_concurrency"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	FPS            int    `toml:"fps"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains OpenAI-compatible connection settings used by embedding similarity.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	EmbeddingModel string `toml:"embedding_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Retry bounds retries of external service calls.
type Retry struct {
	Attempts              int `toml:"attempts"`
	InitialIntervalMillis int `toml:"initial_interval_ms"`
	MaxIntervalMillis     int `toml:"max_interval_ms"`
}

// Workflow contains pipeline behaviour switches.
type Workflow struct {
	SampleData     bool `toml:"sample_data"`
	MaxConcurrency int  `toml:"max_concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for promocut.
//
// Configuration sections by subsystem:
//   - Paths: input, output, log and cache directories
//   - Segmenter: subtitle line grouping thresholds
//   - Scoring: dimension/keyword scoring and similarity backend
//   - Selection: per-category caps, overlap and duration window
//   - Diversity: multi-source remix matching
//   - Sequence: duration bounds, end slate and transitions
//   - Media: ffmpeg/ffprobe binaries and output geometry
//   - LLM: embedding endpoint settings
//   - Retry: backoff for external calls
//   - Workflow: sample data mode and worker pool size
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Segmenter Segmenter `toml:"segmenter"`
	Scoring   Scoring   `toml:"scoring"`
	Selection Selection `toml:"selection"`
	Diversity Diversity `toml:"diversity"`
	Sequence  Sequence  `toml:"sequence"`
	Media     Media     `toml:"media"`
	LLM       LLM       `toml:"llm"`
	Retry     Retry     `toml:"retry"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("promocut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output layout and log/cache directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.LogDir}
	for _, sub := range OutputSubdirs {
		dirs = append(dirs, filepath.Join(c.Paths.OutputDir, sub))
	}
	if c.Scoring.CacheEnabled {
		dirs = append(dirs, c.Paths.CacheDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputSubdirs lists the per-run directories under the output root.
var OutputSubdirs = []string{"Subtitles", "Analysis", "Matching", "Clips", "Temp", "Final"}

// CacheDBPath returns the similarity cache database location.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.Paths.CacheDir, "similarity.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "promocut")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/promocut"
	}
	return filepath.Join(home, ".cache", "promocut")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// RetryPolicy converts the [retry] section for external call sites.
func (c *Config) RetryPolicy() services.RetryPolicy {
	return services.RetryPolicy{
		Attempts:        c.Retry.Attempts,
		InitialInterval: time.Duration(c.Retry.InitialIntervalMillis) * time.Millisecond,
		MaxInterval:     time.Duration(c.Retry.MaxIntervalMillis) * time.Millisecond,
	}
}
