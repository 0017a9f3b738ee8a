package workflow

import (
	"context"
	"log/slog"

	"promocut/internal/clipindex"
	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/media"
	"promocut/internal/selection"
	"promocut/internal/sequence"
	"promocut/internal/services"
	"promocut/internal/stage"
)

// AssemblyStage orders the selected clips and renders
// Final/advertisement_final.mp4.
type AssemblyStage struct {
	env    *Env
	logger *slog.Logger
}

// NewAssemblyStage constructs stage 6.
func NewAssemblyStage(env *Env) *AssemblyStage {
	return &AssemblyStage{env: env, logger: logging.NewComponentLogger(env.Logger, "assembly")}
}

func (s *AssemblyStage) Name() string { return "assembly" }

func (s *AssemblyStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *AssemblyStage) Prepare(ctx context.Context, run *stage.Run) error {
	return skipUnlessWritable(run, run.Output(FinalDir, FinalVideoFile))
}

// Execute plans the sequence, reusing indexed clips where the range matches,
// and renders it with the end slate.
func (s *AssemblyStage) Execute(ctx context.Context, run *stage.Run) error {
	var selected selection.Result
	if err := readArtifact("assembly", run.Output(MatchingDir, SelectedSegmentsFile), &selected); err != nil {
		return err
	}

	var order []string
	if tree, _, err := loadDimensions(run); err == nil {
		order = tree.CategoryOrder()
	} else if !isMissing(err) {
		return err
	}

	planner, err := sequence.NewPlanner(sequence.OptionsFromConfig(run.Config), s.logger)
	if err != nil {
		return err
	}
	resolve := func(sourceID string) (string, error) {
		return media.FindVideo(run.Input(VideosDir), sourceID)
	}
	segments := make([]dimension.ScoredSegment, 0, len(selected.Segments))
	for _, seg := range selected.Segments {
		if _, err := resolve(seg.SourceID); err != nil {
			logging.WarnWithContext(s.logger, "no video for selected segment", "video_missing",
				logging.String(logging.FieldSourceID, seg.SourceID),
				logging.String(logging.FieldImpact, "segment is left out of the cut"),
			)
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return services.Wrap(services.ErrMissingInput, "assembly", "resolve videos",
			"No source video found for any selected segment", nil)
	}
	plan := planner.FromSelection(segments, order)

	index, err := clipindex.Open(run.Output(ClipsDir, clipindex.FileName), s.logger)
	if err != nil {
		return err
	}
	reused := 0
	for i, entry := range plan.Entries {
		if entry.Role != sequence.RoleMain {
			continue
		}
		video, err := resolve(entry.SourceID)
		if err != nil {
			continue
		}
		if path, _, ok := index.Find(video, entry.Start, entry.End); ok && fileutil.Exists(path) {
			plan.Entries[i].ClipPath = path
			reused++
		}
	}
	if err := fileutil.WriteJSON(run.Output(FinalDir, SequencePlanFile), plan); err != nil {
		return err
	}

	out := run.Output(FinalDir, FinalVideoFile)
	assembler := media.NewAssembler(s.env.Engine, run.Config.Media.MaxConcurrency, s.logger)
	res, err := assembler.Assemble(ctx, media.AssembleRequest{
		Plan:         plan,
		ResolveVideo: resolve,
		TempDir:      run.Output(TempDir),
		Output:       out,
		Slogan:       readSlogan(run),
		Style:        media.StyleFor(run.Config.Sequence.EndStyle),
	})
	if err != nil {
		return err
	}
	if err := updateVideoIndex(run.Output(FinalDir, VideoIndexFile), FinalVideoFile, VideoInfo{
		Duration:       res.Metadata.Duration,
		Width:          res.Metadata.Width,
		Height:         res.Metadata.Height,
		FPS:            res.Metadata.FPS,
		ContainsSample: plan.ContainsSample(),
	}); err != nil {
		return err
	}
	s.logger.Info("advertisement assembled",
		logging.String("path", out),
		logging.Int("entries", res.Entries),
		logging.Int("reused_clips", reused),
		logging.Float64("planned_duration", plan.TotalDuration),
		logging.Float64("duration", res.Metadata.Duration),
		logging.Bool("within_bounds", plan.WithinBounds),
	)
	return nil
}

func (s *AssemblyStage) HealthCheck(context.Context) stage.Health {
	return mediaHealth(s.Name(), s.env)
}
