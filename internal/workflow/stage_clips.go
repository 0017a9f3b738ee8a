package workflow

import (
	"context"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"promocut/internal/clipindex"
	"promocut/internal/deps"
	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/media"
	"promocut/internal/selection"
	"promocut/internal/services"
	"promocut/internal/stage"
)

// ClipStage selects segments under the configured constraints and cuts each
// into Clips/Category_<category>/, recording them in the clip index.
type ClipStage struct {
	env    *Env
	logger *slog.Logger
}

// NewClipStage constructs stage 5.
func NewClipStage(env *Env) *ClipStage {
	return &ClipStage{env: env, logger: logging.NewComponentLogger(env.Logger, "clips")}
}

func (s *ClipStage) Name() string { return "clips" }

func (s *ClipStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *ClipStage) Prepare(ctx context.Context, run *stage.Run) error {
	return skipUnlessWritable(run, run.Output(MatchingDir, SelectedSegmentsFile))
}

// Execute selects, persists the selection and extracts the clips. A selection
// that misses the duration window is reported and kept; an empty selection
// fails the stage.
func (s *ClipStage) Execute(ctx context.Context, run *stage.Run) error {
	var scored []dimension.ScoredSegment
	if err := readArtifact("clips", run.Output(MatchingDir, ScoredSegmentsFile), &scored); err != nil {
		return err
	}
	selector, err := selection.NewSelector(selection.ConstraintsFromConfig(run.Config), s.logger)
	if err != nil {
		return err
	}
	result := selector.Select(scored)
	if result.Empty() {
		return services.Wrap(services.ErrMissingInput, "clips", "select",
			"No segment cleared the score threshold", nil)
	}
	if err := result.Err(); err != nil {
		logging.WarnWithContext(s.logger, "selection outside duration window", "selection_shortfall",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "lower selection.score_threshold or add source material"),
			logging.String(logging.FieldImpact, "the final cut will be shorter or longer than targeted"),
		)
	}
	if err := fileutil.WriteJSON(run.Output(MatchingDir, SelectedSegmentsFile), result); err != nil {
		return err
	}

	jobs, kept := s.plan(run, result.Segments)
	if len(jobs) == 0 {
		return services.Wrap(services.ErrMissingInput, "clips", "resolve videos",
			"No source video found for any selected segment", nil)
	}

	assembler := media.NewAssembler(s.env.Engine, run.Config.Media.MaxConcurrency, s.logger)
	clips, err := assembler.ExtractAll(ctx, jobs)
	if err != nil {
		return err
	}

	index, err := clipindex.Open(run.Output(ClipsDir, clipindex.FileName), s.logger)
	if err != nil {
		return err
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(run.Config.Media.MaxConcurrency)
	for i, clip := range clips {
		group.Go(func() error {
			meta, err := s.env.Engine.Metadata(gctx, clip.Path)
			if err != nil {
				return services.WithSourceID(err, jobs[i].SourceID)
			}
			return index.Put(clip.Path, clipindex.Entry{
				SourceFile:  jobs[i].Video,
				Category:    kept[i].Category,
				StartTime:   jobs[i].Start,
				EndTime:     jobs[i].End,
				Duration:    meta.Duration,
				OriginalFPS: meta.FPS,
				Width:       meta.Width,
				Height:      meta.Height,
			})
		})
	}
	if err := group.Wait(); err != nil {
		return canceledOr(ctx, "clips", err)
	}
	s.logger.Info("clips extracted",
		logging.Int("selected", len(result.Segments)),
		logging.Int("extracted", len(clips)),
		logging.Float64("total_duration", result.TotalDuration),
	)
	return nil
}

// plan resolves a video for each selected segment. Segments whose video is
// missing are logged and left out; kept is parallel to jobs.
func (s *ClipStage) plan(run *stage.Run, segments []dimension.ScoredSegment) ([]media.ExtractJob, []dimension.ScoredSegment) {
	clipsDir := run.Output(ClipsDir)
	var (
		jobs []media.ExtractJob
		kept []dimension.ScoredSegment
	)
	for _, seg := range segments {
		video, err := media.FindVideo(run.Input(VideosDir), seg.SourceID)
		if err != nil {
			logging.WarnWithContext(s.logger, "no video for selected segment", "video_missing",
				logging.String(logging.FieldSourceID, seg.SourceID),
				logging.Bool("sample", seg.Sample),
				logging.String(logging.FieldErrorHint, "place the video under "+run.Input(VideosDir)),
				logging.String(logging.FieldImpact, "segment is left out of the cut"),
			)
			continue
		}
		jobs = append(jobs, media.ExtractJob{
			SourceID: seg.SourceID,
			Video:    video,
			Start:    seg.Start,
			End:      seg.End,
			Output: filepath.Join(media.CategoryDir(clipsDir, seg.Category),
				media.ClipFileName(seg.Category, seg.SourceID, seg.Start, seg.End)),
		})
		kept = append(kept, seg)
	}
	return jobs, kept
}

func (s *ClipStage) HealthCheck(context.Context) stage.Health {
	return mediaHealth(s.Name(), s.env)
}

func mediaHealth(name string, env *Env) stage.Health {
	if env == nil || env.Engine == nil {
		return stage.Unhealthy(name, "media engine not configured")
	}
	if err := deps.Inspect(deps.MediaBinaries(env.Config)).Err(); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
