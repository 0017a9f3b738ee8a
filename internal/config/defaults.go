package config

const (
	defaultConfigPath         = "~/.config/promocut/config.toml"
	defaultInputDir           = "."
	defaultOutputDir          = "./output"
	defaultLogDir             = "~/.local/share/promocut/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMinSegmentLength   = 3
	defaultMergeGapSeconds    = 2.0
	defaultSplitGapSeconds    = 3.0
	defaultScoringMode        = "dimension"
	defaultScoringDescent     = "greedy"
	defaultKeywordThreshold   = 0.3
	defaultSimilarity         = "lexical"
	defaultScoreThreshold     = 0.3
	defaultMaxPerCategory     = 10
	defaultOverlapRatio       = 0.5
	defaultMinClipDuration    = 3.0
	defaultMaxClipDuration    = 15.0
	defaultTotalClipsLimit    = 50
	defaultTargetDuration     = 30.0
	defaultDurationTolerance  = 5.0
	defaultMinDiversity       = 3
	defaultCandidatesPerStage = 10
	defaultWindowMinRatio     = 0.5
	defaultWindowMaxRatio     = 1.5
	defaultSequenceMin        = 27.0
	defaultSequenceMax        = 40.0
	defaultEndSlateSeconds    = 5.0
	defaultTransitionSeconds  = 0.5
	defaultEndStyle           = "simple"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultMediaConcurrency   = 4
	defaultMediaWidth         = 1920
	defaultMediaHeight        = 1080
	defaultMediaFPS           = 30
	defaultMediaTimeout       = 300
	defaultEmbeddingModel     = "text-embedding-3-small"
	defaultLLMTimeout         = 30
	defaultRetryAttempts      = 3
	defaultRetryInitialMS     = 500
	defaultRetryMaxMS         = 5000
	defaultWorkflowWorkers    = 4
)

// DefaultLevelWeights are the per-level contributions to a combined score.
var DefaultLevelWeights = []float64{0.5, 0.3, 0.2}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir(),
		},
		Segmenter: Segmenter{
			MinSegmentLength: defaultMinSegmentLength,
			MergeGapSeconds:  defaultMergeGapSeconds,
			SplitGapSeconds:  defaultSplitGapSeconds,
		},
		Scoring: Scoring{
			Mode:             defaultScoringMode,
			Descent:          defaultScoringDescent,
			LevelWeights:     append([]float64(nil), DefaultLevelWeights...),
			KeywordThreshold: defaultKeywordThreshold,
			Similarity:       defaultSimilarity,
			CacheEnabled:     true,
		},
		Selection: Selection{
			ScoreThreshold:        defaultScoreThreshold,
			MaxPerCategory:        defaultMaxPerCategory,
			OverlapRatioThreshold: defaultOverlapRatio,
			MinClipDuration:       defaultMinClipDuration,
			MaxClipDuration:       defaultMaxClipDuration,
			TotalClipsLimit:       defaultTotalClipsLimit,
			TargetDuration:        defaultTargetDuration,
			DurationTolerance:     defaultDurationTolerance,
		},
		Diversity: Diversity{
			MinDiversityRequirement: defaultMinDiversity,
			CandidatesPerStage:      defaultCandidatesPerStage,
			WindowMinRatio:          defaultWindowMinRatio,
			WindowMaxRatio:          defaultWindowMaxRatio,
		},
		Sequence: Sequence{
			MinDuration:       defaultSequenceMin,
			MaxDuration:       defaultSequenceMax,
			EndSlateSeconds:   defaultEndSlateSeconds,
			TransitionSeconds: defaultTransitionSeconds,
			EndStyle:          defaultEndStyle,
		},
		Media: Media{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			MaxConcurrency: defaultMediaConcurrency,
			Width:          defaultMediaWidth,
			Height:         defaultMediaHeight,
			FPS:            defaultMediaFPS,
			TimeoutSeconds: defaultMediaTimeout,
		},
		LLM: LLM{
			EmbeddingModel: defaultEmbeddingModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Retry: Retry{
			Attempts:              defaultRetryAttempts,
			InitialIntervalMillis: defaultRetryInitialMS,
			MaxIntervalMillis:     defaultRetryMaxMS,
		},
		Workflow: Workflow{
			MaxConcurrency: defaultWorkflowWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
