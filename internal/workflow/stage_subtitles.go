package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/services"
	"promocut/internal/stage"
	"promocut/internal/subtitles"
)

// SubtitleStage collects one SRT per source into <out>/Subtitles.
type SubtitleStage struct {
	env     *Env
	logger  *slog.Logger
	sources []sourceRef
}

// NewSubtitleStage constructs stage 1.
func NewSubtitleStage(env *Env) *SubtitleStage {
	return &SubtitleStage{env: env, logger: logging.NewComponentLogger(env.Logger, "subtitles")}
}

func (s *SubtitleStage) Name() string { return "subtitles" }

func (s *SubtitleStage) SetLogger(logger *slog.Logger) { s.logger = logger }

// Prepare discovers the sources of the input directory.
func (s *SubtitleStage) Prepare(ctx context.Context, run *stage.Run) error {
	sources, err := discoverSources(run.InputDir)
	if err != nil {
		return err
	}
	if len(sources) == 0 && !run.Options.SampleData {
		return services.Wrap(services.ErrMissingInput, "subtitles", "discover sources",
			"No videos or subtitles found under "+run.InputDir, nil)
	}
	s.sources = sources
	s.logger.Info("sources discovered", logging.Int("count", len(sources)))
	return nil
}

// Execute transcribes each source on the worker pool. Sources without
// subtitles are recorded in the manifest; the stage fails only when none
// produced any, unless sample data is enabled.
func (s *SubtitleStage) Execute(ctx context.Context, run *stage.Run) error {
	outDir := run.Output(SubtitlesDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create subtitles dir: %w", err)
	}
	transcriber := s.env.transcriber(run)
	rows := make([]SubtitleSource, len(s.sources))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers(run))
	for i, src := range s.sources {
		group.Go(func() error {
			row, err := s.transcribe(gctx, run, transcriber, src)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return canceledOr(ctx, "subtitles", err)
	}

	produced := 0
	for _, row := range rows {
		if !row.Missing {
			produced++
		}
	}
	if produced == 0 {
		if !run.Options.SampleData {
			return services.Wrap(services.ErrMissingInput, "subtitles", "transcribe",
				"No subtitles could be produced for any source", nil)
		}
		path := run.Output(SubtitlesDir, SampleSourceID+".srt")
		if err := subtitles.WriteFile(path, sampleLines()); err != nil {
			return err
		}
		rows = append(rows, SubtitleSource{SourceID: SampleSourceID, Subtitle: path, Cues: len(sampleCues), Sample: true})
		logging.WarnWithContext(s.logger, "using sample subtitles", "sample_data",
			logging.String(logging.FieldErrorHint, "add videos with subtitles to the input directory"),
			logging.String(logging.FieldImpact, "the final cut is built from placeholder text"),
		)
	}

	manifest := SubtitleManifest{
		RunID:        run.ID,
		UseHotWords:  run.Options.UseHotWords,
		VocabularyID: run.Options.VocabularyID,
		Sources:      rows,
	}
	if err := fileutil.WriteJSON(run.Output(SubtitlesDir, SubtitleManifestFile), manifest); err != nil {
		return err
	}
	s.logger.Info("subtitles collected",
		logging.Int("sources", len(s.sources)),
		logging.Int("produced", produced),
	)
	return nil
}

func (s *SubtitleStage) transcribe(ctx context.Context, run *stage.Run, t subtitles.Transcriber, src sourceRef) (SubtitleSource, error) {
	row := SubtitleSource{SourceID: src.ID, Video: src.Video}
	lines, err := t.Transcribe(ctx, subtitles.Request{
		SourceID:     src.ID,
		VideoPath:    src.Video,
		UseHotWords:  run.Options.UseHotWords,
		VocabularyID: run.Options.VocabularyID,
	})
	if errors.Is(err, services.ErrMissingInput) {
		row.Missing = true
		logging.WarnWithContext(s.logger, "no subtitles for source", "subtitles_missing",
			logging.String(logging.FieldSourceID, src.ID),
			logging.String(logging.FieldErrorHint, "place <source>.srt next to the video or under Subtitles/"),
			logging.String(logging.FieldImpact, "source is excluded from matching"),
		)
		return row, nil
	}
	if err != nil {
		return row, services.WithSourceID(err, src.ID)
	}
	row.Subtitle = run.Output(SubtitlesDir, src.ID+".srt")
	row.Cues = len(lines)
	if err := subtitles.WriteFile(row.Subtitle, lines); err != nil {
		return row, services.WithSourceID(err, src.ID)
	}
	return row, nil
}

func (s *SubtitleStage) HealthCheck(context.Context) stage.Health {
	if s.env == nil || s.env.Config == nil {
		return stage.Unhealthy(s.Name(), "configuration unavailable")
	}
	return stage.Healthy(s.Name())
}
