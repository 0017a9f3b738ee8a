package workflow

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"promocut/internal/config"
	"promocut/internal/logging"
	"promocut/internal/media"
	"promocut/internal/similarity"
)

// fakeEngine writes a placeholder file for every output it is asked to make.
type fakeEngine struct {
	mu        sync.Mutex
	extracted []string
	concats   [][]string
	slates    []media.EndSlate
}

func (e *fakeEngine) touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("video"), 0o644)
}

func (e *fakeEngine) ExtractClip(_ context.Context, source string, start, end float64, output string) (media.Clip, error) {
	e.mu.Lock()
	e.extracted = append(e.extracted, source)
	e.mu.Unlock()
	return media.Clip{Path: output, Duration: end - start}, e.touch(output)
}

func (e *fakeEngine) AddFade(_ context.Context, clip media.Clip, _, _ float64, output string) (media.Clip, error) {
	return media.Clip{Path: output, Duration: clip.Duration}, e.touch(output)
}

func (e *fakeEngine) Concat(_ context.Context, clips []media.Clip, output string) (media.Clip, error) {
	names := make([]string, 0, len(clips))
	total := 0.0
	for _, c := range clips {
		names = append(names, filepath.Base(c.Path))
		total += c.Duration
	}
	e.mu.Lock()
	e.concats = append(e.concats, names)
	e.mu.Unlock()
	return media.Clip{Path: output, Duration: total}, e.touch(output)
}

func (e *fakeEngine) Metadata(context.Context, string) (media.Metadata, error) {
	return media.Metadata{Duration: 6, Width: 1920, Height: 1080, FPS: 30}, nil
}

func (e *fakeEngine) RenderEndSlate(_ context.Context, slate media.EndSlate, output string) (media.Clip, error) {
	e.mu.Lock()
	e.slates = append(e.slates, slate)
	e.mu.Unlock()
	return media.Clip{Path: output, Duration: slate.Duration}, e.touch(output)
}

func (e *fakeEngine) extractCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.extracted)
}

func newTestEnv(cfg *config.Config, engine media.Engine) *Env {
	return &Env{
		Config:     cfg,
		Logger:     logging.NewNop(),
		Similarity: similarity.Func(func(string, string) float64 { return 0.9 }),
		Engine:     engine,
	}
}
