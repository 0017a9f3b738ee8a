package workflow

import (
	"fmt"
	"log/slog"

	"promocut/internal/cache"
	"promocut/internal/config"
	"promocut/internal/deps"
	"promocut/internal/logging"
	"promocut/internal/media"
	"promocut/internal/similarity"
	"promocut/internal/stage"
	"promocut/internal/subtitles"
)

// Env holds the collaborators shared by the stages and the remix pipeline.
type Env struct {
	Config *config.Config
	Logger *slog.Logger

	// Transcriber produces subtitles in stage 1. When nil, existing SRT
	// files next to the videos or under <input>/Subtitles are used.
	Transcriber subtitles.Transcriber
	Similarity  similarity.Scorer
	Engine      media.Engine

	store *cache.Store
}

// NewEnv builds the production collaborators: the similarity backend (with
// the SQLite cache when enabled) and the ffmpeg engine.
func NewEnv(cfg *config.Config, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	env := &Env{Config: cfg, Logger: logger}
	if cfg.Scoring.CacheEnabled {
		store, err := cache.Open(cfg.CacheDBPath())
		if err != nil {
			return nil, fmt.Errorf("open similarity cache: %w", err)
		}
		env.store = store
	}
	sim, err := similarity.New(cfg, env.store, logger)
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	env.Similarity = sim

	opts := media.FFmpegOptionsFromConfig(cfg)
	if probe, ok := deps.ProbeFor(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary); ok {
		opts.FFprobeBinary = probe
	}
	env.Engine = media.NewFFmpeg(opts, logger)
	return env, nil
}

// Close releases the similarity cache.
func (e *Env) Close() error {
	if e == nil || e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

func (e *Env) transcriber(run *stage.Run) subtitles.Transcriber {
	if e.Transcriber != nil {
		return e.Transcriber
	}
	return subtitles.NewSidecarTranscriber(e.Logger, run.Input(SubtitlesDir))
}
