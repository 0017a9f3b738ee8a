package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"promocut/internal/logging"
	"promocut/internal/services"
)

// Request describes one transcription job.
type Request struct {
	SourceID    string
	VideoPath   string
	UseHotWords bool
	// VocabularyID names an externally managed hot-word vocabulary.
	VocabularyID string
}

// Transcriber produces subtitle lines for a source video.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) ([]Line, error)
}

// SidecarTranscriber resolves an existing SRT for each video instead of
// calling a speech service. It checks SearchDirs for <source>.srt and then
// the video's own directory.
type SidecarTranscriber struct {
	SearchDirs []string
	logger     *slog.Logger
}

// NewSidecarTranscriber constructs a SidecarTranscriber.
func NewSidecarTranscriber(logger *slog.Logger, searchDirs ...string) *SidecarTranscriber {
	return &SidecarTranscriber{SearchDirs: searchDirs, logger: logging.NewComponentLogger(logger, "transcriber")}
}

// Transcribe locates and parses the sidecar SRT.
func (t *SidecarTranscriber) Transcribe(ctx context.Context, req Request) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrCanceled, "subtitles", "transcribe", "Transcription canceled", err)
	}
	path, ok := t.Locate(req)
	if !ok {
		return nil, services.WithSourceID(services.Wrap(services.ErrMissingInput, "subtitles", "transcribe",
			fmt.Sprintf("No subtitle file found for %s", req.SourceID), nil), req.SourceID)
	}
	if req.UseHotWords || req.VocabularyID != "" {
		t.logger.Debug("hot-word options ignored for sidecar subtitles",
			logging.String(logging.FieldSourceID, req.SourceID),
			logging.Bool("use_hot_words", req.UseHotWords),
			logging.String("vocabulary_id", req.VocabularyID),
		)
	}
	lines, err := ParseFile(path)
	if err != nil {
		return nil, services.WithSourceID(err, req.SourceID)
	}
	if len(lines) == 0 {
		return nil, services.WithSourceID(services.Wrap(services.ErrMissingInput, "subtitles", "transcribe",
			fmt.Sprintf("Subtitle file %s has no cues", path), nil), req.SourceID)
	}
	t.logger.Info("subtitles loaded",
		logging.String(logging.FieldSourceID, req.SourceID),
		logging.String("path", path),
		logging.Int("cues", len(lines)),
	)
	return lines, nil
}

// Locate returns the first existing candidate SRT path for req.
func (t *SidecarTranscriber) Locate(req Request) (string, bool) {
	var candidates []string
	for _, dir := range t.SearchDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, req.SourceID+".srt"))
	}
	if req.VideoPath != "" {
		base := strings.TrimSuffix(req.VideoPath, filepath.Ext(req.VideoPath))
		candidates = append(candidates, base+".srt", base+".SRT")
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
