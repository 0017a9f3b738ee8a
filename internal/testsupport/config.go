package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"promocut/internal/config"
)

// Option adjusts a test config. base is the temp directory holding every
// path the config points at.
type Option func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a config rooted in a fresh temp directory with input,
// output, log and cache dirs beneath it. The similarity cache is off, retries
// are disabled and worker pools are small.
func NewConfig(t testing.TB, opts ...Option) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	for dir, field := range map[string]*string{
		"input":  &cfg.Paths.InputDir,
		"output": &cfg.Paths.OutputDir,
		"logs":   &cfg.Paths.LogDir,
		"cache":  &cfg.Paths.CacheDir,
	} {
		*field = filepath.Join(base, dir)
	}
	cfg.Scoring.CacheEnabled = false
	cfg.Workflow.MaxConcurrency = 2
	cfg.Media.MaxConcurrency = 2
	cfg.Retry.Attempts = 1
	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithSampleData turns on sample-data mode.
func WithSampleData() Option {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Workflow.SampleData = true
	}
}

// WithKeywords sets the flat keyword list used when no dimension file exists.
func WithKeywords(keywords ...string) Option {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Scoring.Keywords = keywords
	}
}

// WithStubbedBinaries puts no-op shell scripts for names (ffmpeg and ffprobe
// by default) first on PATH and points the media config at them.
func WithStubbedBinaries(names ...string) Option {
	return func(t testing.TB, base string, cfg *config.Config) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		bin := filepath.Join(base, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", bin, err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("stub %s: %v", name, err)
			}
		}
		cfg.Media.FFmpegBinary = "ffmpeg"
		cfg.Media.FFprobeBinary = "ffprobe"
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
