package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"promocut/internal/diversity"
	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/media"
	"promocut/internal/runlock"
	"promocut/internal/segment"
	"promocut/internal/sequence"
	"promocut/internal/services"
	"promocut/internal/subtitles"
)

// RemixRequest describes one multi-source remix.
type RemixRequest struct {
	// ReferenceSubtitles is the SRT whose segments define the stages.
	ReferenceSubtitles string
	// CandidatesDir holds candidate videos with sidecar SRTs, or SRTs under
	// a Subtitles/ subdirectory.
	CandidatesDir string
	OutputDir     string
	BrandKeywords []string
	// MinDiversity overrides diversity.min_diversity_requirement when positive.
	MinDiversity int
	Slogan       string
}

// RemixResult reports the remix artifacts.
type RemixResult struct {
	Stages   []diversity.Stage
	Plan     diversity.Plan
	Sequence sequence.Plan
	Video    media.Result
}

// Remix builds a cut that follows the reference's stages while drawing each
// stage from the candidate source that matches it, subject to the minimum
// number of distinct sources.
func Remix(ctx context.Context, env *Env, req RemixRequest) (RemixResult, error) {
	var result RemixResult
	cfg := env.Config
	logger := logging.NewComponentLogger(env.Logger, "remix")
	if strings.TrimSpace(req.OutputDir) == "" {
		req.OutputDir = cfg.Paths.OutputDir
	}

	lock, err := runlock.Acquire(req.OutputDir)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	refLines, err := subtitles.ParseFile(req.ReferenceSubtitles)
	if err != nil {
		return result, err
	}
	segmenter := segment.NewSegmenter(segment.OptionsFromConfig(cfg), logger)
	refSegments := segmenter.Segment("reference", refLines)
	if len(refSegments) == 0 {
		return result, services.Wrap(services.ErrMissingInput, "remix", "segment reference",
			"Reference subtitles produced no segments: "+req.ReferenceSubtitles, nil)
	}

	opts := diversity.OptionsFromConfig(cfg)
	if len(req.BrandKeywords) > 0 {
		opts.BrandKeywords = req.BrandKeywords
	}
	if req.MinDiversity > 0 {
		opts.MinDiversityRequirement = req.MinDiversity
	}
	stages := diversity.StagesFromSegments(refSegments, opts.BrandKeywords)
	result.Stages = stages

	sources, err := loadCandidates(ctx, env, req.CandidatesDir, logger)
	if err != nil {
		return result, err
	}

	generator, err := diversity.NewGenerator(env.Similarity, opts, cfg.Workflow.MaxConcurrency, logger)
	if err != nil {
		return result, err
	}
	candidates, err := generator.Generate(ctx, stages, sources)
	if err != nil {
		return result, err
	}
	matcher, err := diversity.NewMatcher(opts, logger)
	if err != nil {
		return result, err
	}
	result.Plan = matcher.Match(stages, candidates)
	if err := fileutil.WriteJSON(filepath.Join(req.OutputDir, MatchingDir, DiversityPlanFile), result.Plan); err != nil {
		return result, err
	}
	if len(result.Plan.Assignments) == 0 {
		return result, services.Wrap(services.ErrMissingInput, "remix", "match",
			"No candidate window matched any reference stage", nil)
	}

	refStart, refEnd := subtitles.Bounds(refLines)
	seqOpts := sequence.OptionsFromConfig(cfg)
	seqOpts.ReferenceDuration = refEnd - refStart
	planner, err := sequence.NewPlanner(seqOpts, logger)
	if err != nil {
		return result, err
	}
	result.Sequence = planner.FromMatches(stages, result.Plan)
	if err := fileutil.WriteJSON(filepath.Join(req.OutputDir, FinalDir, "remix_"+SequencePlanFile), result.Sequence); err != nil {
		return result, err
	}

	out := filepath.Join(req.OutputDir, FinalDir, RemixVideoFile)
	assembler := media.NewAssembler(env.Engine, cfg.Media.MaxConcurrency, logger)
	result.Video, err = assembler.Assemble(ctx, media.AssembleRequest{
		Plan: result.Sequence,
		ResolveVideo: func(sourceID string) (string, error) {
			return media.FindVideo(req.CandidatesDir, sourceID)
		},
		TempDir: filepath.Join(req.OutputDir, TempDir, "remix"),
		Output:  out,
		Slogan:  req.Slogan,
		Style:   media.StyleFor(cfg.Sequence.EndStyle),
	})
	if err != nil {
		return result, err
	}
	if err := updateVideoIndex(filepath.Join(req.OutputDir, FinalDir, VideoIndexFile), RemixVideoFile, VideoInfo{
		Duration: result.Video.Metadata.Duration,
		Width:    result.Video.Metadata.Width,
		Height:   result.Video.Metadata.Height,
		FPS:      result.Video.Metadata.FPS,
	}); err != nil {
		return result, err
	}
	logger.Info("remix assembled",
		logging.String("path", out),
		logging.Int("stages", len(stages)),
		logging.Int("distinct_sources", result.Plan.DistinctSources),
		logging.Bool("requirement_met", result.Plan.RequirementMet),
	)
	return result, nil
}

// loadCandidates reads the subtitles of every candidate video in dir, in id
// order. Videos without subtitles are skipped with a warning.
func loadCandidates(ctx context.Context, env *Env, dir string, logger *slog.Logger) ([]diversity.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingInput, "remix", "read candidates",
			"Cannot read candidate directory "+dir, err)
	}
	transcriber := env.Transcriber
	if transcriber == nil {
		transcriber = subtitles.NewSidecarTranscriber(logger, filepath.Join(dir, SubtitlesDir), dir)
	}
	var sources []diversity.Source
	for _, entry := range entries {
		if entry.IsDir() || !media.IsVideoFile(entry.Name()) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		lines, err := transcriber.Transcribe(ctx, subtitles.Request{SourceID: id, VideoPath: filepath.Join(dir, entry.Name())})
		if errors.Is(err, services.ErrMissingInput) {
			logging.WarnWithContext(logger, "candidate has no subtitles", "subtitles_missing",
				logging.String(logging.FieldSourceID, id),
				logging.String(logging.FieldImpact, "candidate is not considered"),
			)
			continue
		}
		if err != nil {
			return nil, services.WithSourceID(err, id)
		}
		sources = append(sources, diversity.Source{ID: id, Lines: lines})
	}
	slices.SortFunc(sources, func(a, b diversity.Source) int { return strings.Compare(a.ID, b.ID) })
	sources = slices.CompactFunc(sources, func(a, b diversity.Source) bool { return a.ID == b.ID })
	if len(sources) == 0 {
		return nil, services.Wrap(services.ErrMissingInput, "remix", "load candidates",
			fmt.Sprintf("No candidate video with subtitles in %s", dir), nil)
	}
	return sources, nil
}
