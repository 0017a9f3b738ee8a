package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/segment"
	"promocut/internal/services"
	"promocut/internal/stage"
	"promocut/internal/subtitles"
)

// MatchingStage segments every transcript and scores the segments against
// the taxonomy, writing Matching/segments_with_scores.json.
type MatchingStage struct {
	env    *Env
	logger *slog.Logger
}

// NewMatchingStage constructs stage 4.
func NewMatchingStage(env *Env) *MatchingStage {
	return &MatchingStage{env: env, logger: logging.NewComponentLogger(env.Logger, "matching")}
}

func (s *MatchingStage) Name() string { return "matching" }

func (s *MatchingStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *MatchingStage) Prepare(ctx context.Context, run *stage.Run) error {
	return skipUnlessWritable(run, run.Output(MatchingDir, ScoredSegmentsFile))
}

type transcript struct {
	sourceID string
	lines    []subtitles.Line
}

// Execute scores sources concurrently and writes them back in source order.
func (s *MatchingStage) Execute(ctx context.Context, run *stage.Run) error {
	tree, treePath, err := loadDimensions(run)
	if err != nil {
		if !run.Options.SampleData || !isMissing(err) {
			return err
		}
		tree, treePath = sampleTree(), "sample"
	}
	transcripts, err := s.loadTranscripts(run)
	if err != nil {
		return err
	}

	scorer, err := dimension.NewScorer(tree, s.env.Similarity, dimension.OptionsFromConfig(run.Config), s.logger)
	if err != nil {
		return err
	}
	segmenter := segment.NewSegmenter(segment.OptionsFromConfig(run.Config), s.logger)

	perSource := make([][]dimension.ScoredSegment, len(transcripts))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers(run))
	for i, tr := range transcripts {
		group.Go(func() error {
			srcCtx := services.WithSource(gctx, tr.sourceID)
			segments := segmenter.Segment(tr.sourceID, tr.lines)
			if p, ok := s.env.Similarity.(prefetcher); ok {
				if err := p.Prefetch(srcCtx, segmentTexts(segments)); err != nil {
					return services.WithSourceID(err, tr.sourceID)
				}
			}
			scored, err := scorer.ScoreAll(srcCtx, segments)
			if err != nil {
				return err
			}
			sample := run.Options.SampleData && tr.sourceID == SampleSourceID
			for j := range scored {
				scored[j].Sample = sample
			}
			perSource[i] = scored
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return canceledOr(ctx, "matching", err)
	}

	all := slices.Concat(perSource...)
	if all == nil {
		all = []dimension.ScoredSegment{}
	}
	out := run.Output(MatchingDir, ScoredSegmentsFile)
	if err := fileutil.WriteJSON(out, all); err != nil {
		return err
	}
	s.logger.Info("segments scored",
		logging.Int("sources", len(transcripts)),
		logging.Int("segments", len(all)),
		logging.String("dimensions", treePath),
		logging.String("mode", run.Config.Scoring.Mode),
	)
	return nil
}

func (s *MatchingStage) loadTranscripts(run *stage.Run) ([]transcript, error) {
	paths, err := filepath.Glob(run.Output(SubtitlesDir, "*.srt"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	var out []transcript
	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if id == SampleSourceID && !run.Options.SampleData {
			continue
		}
		lines, err := subtitles.ParseFile(path)
		if err != nil {
			return nil, services.WithSourceID(err, id)
		}
		if len(lines) == 0 {
			continue
		}
		out = append(out, transcript{sourceID: id, lines: lines})
	}
	if len(out) == 0 {
		if run.Options.SampleData {
			logging.WarnWithContext(s.logger, "using sample transcript", "sample_data",
				logging.String(logging.FieldErrorHint, "run step 1 with real subtitles"),
				logging.String(logging.FieldImpact, "scores are computed on placeholder text"),
			)
			return []transcript{{sourceID: SampleSourceID, lines: sampleLines()}}, nil
		}
		return nil, services.Wrap(services.ErrMissingInput, "matching", "load subtitles",
			"No subtitles under "+run.Output(SubtitlesDir)+"; run step 1 first", nil)
	}
	return out, nil
}

func (s *MatchingStage) HealthCheck(context.Context) stage.Health {
	if s.env == nil || s.env.Similarity == nil {
		return stage.Unhealthy(s.Name(), "similarity backend not configured")
	}
	return stage.Healthy(s.Name())
}

type prefetcher interface {
	Prefetch(ctx context.Context, texts []string) error
}

func segmentTexts(segments []segment.Segment) []string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return texts
}
