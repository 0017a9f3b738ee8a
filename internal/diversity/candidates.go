package diversity

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"promocut/internal/logging"
	"promocut/internal/services"
	"promocut/internal/similarity"
	"promocut/internal/subtitles"
	"promocut/internal/textutil"
)

// Source is a candidate video's transcript.
type Source struct {
	ID    string
	Lines []subtitles.Line
}

// Window is a contiguous run of subtitle lines.
type Window struct {
	Start float64
	End   float64
	Text  string
}

// Duration returns End - Start.
func (w Window) Duration() float64 { return w.End - w.Start }

// Windows enumerates every run of consecutive lines whose span lies within
// [minLen, maxLen]. Windows are ordered by start line, then end line.
func Windows(lines []subtitles.Line, minLen, maxLen float64) []Window {
	if maxLen <= 0 || maxLen < minLen {
		return nil
	}
	var out []Window
	for i := range lines {
		start := lines[i].Start
		var parts []string
		for j := i; j < len(lines); j++ {
			span := lines[j].End - start
			if span > maxLen {
				break
			}
			if text := strings.TrimSpace(lines[j].Text); text != "" {
				parts = append(parts, text)
			}
			if span < minLen || len(parts) == 0 {
				continue
			}
			out = append(out, Window{Start: start, End: lines[j].End, Text: strings.Join(parts, " ")})
		}
	}
	return out
}

// Generator scores candidate windows against stages.
type Generator struct {
	sim     similarity.Scorer
	opts    Options
	workers int
	logger  *slog.Logger
}

// NewGenerator returns a Generator running at most workers sources at once.
func NewGenerator(sim similarity.Scorer, opts Options, workers int, logger *slog.Logger) (*Generator, error) {
	if sim == nil {
		return nil, services.Wrap(services.ErrConfiguration, "diversity", "new generator", "Similarity capability not configured", nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	return &Generator{sim: sim, opts: opts, workers: workers, logger: logging.NewComponentLogger(logger, "candidates")}, nil
}

type prefetcher interface {
	Prefetch(ctx context.Context, texts []string) error
}

// Generate returns, per stage id, one candidate per source (its best window)
// ranked by similarity descending and cut to CandidatesPerStage. Sources are
// processed concurrently; the result does not depend on completion order.
func (g *Generator) Generate(ctx context.Context, stages []Stage, sources []Source) (map[int][]MatchCandidate, error) {
	perSource := make([][]MatchCandidate, len(sources))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)
	for i, src := range sources {
		group.Go(func() error {
			cands, err := g.scoreSource(gctx, stages, src)
			if err != nil {
				return services.WithSourceID(err, src.ID)
			}
			perSource[i] = cands
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrCanceled, "diversity", "generate", "Candidate generation canceled", ctx.Err())
		}
		return nil, err
	}

	out := make(map[int][]MatchCandidate, len(stages))
	for _, cands := range perSource {
		for _, c := range cands {
			out[c.StageID] = append(out[c.StageID], c)
		}
	}
	for id, cands := range out {
		slices.SortStableFunc(cands, bySimilarityDesc)
		if len(cands) > g.opts.CandidatesPerStage {
			cands = cands[:g.opts.CandidatesPerStage]
		}
		out[id] = cands
	}
	return out, nil
}

func (g *Generator) scoreSource(ctx context.Context, stages []Stage, src Source) ([]MatchCandidate, error) {
	var out []MatchCandidate
	for _, stage := range stages {
		lo, hi := g.opts.windowBounds(stage)
		windows := Windows(src.Lines, lo, hi)
		if len(windows) == 0 {
			continue
		}
		if p, ok := g.sim.(prefetcher); ok {
			texts := make([]string, 0, len(windows)+1)
			texts = append(texts, textutil.Normalize(stage.Text))
			for _, w := range windows {
				texts = append(texts, textutil.Normalize(w.Text))
			}
			if err := p.Prefetch(ctx, texts); err != nil {
				return nil, err
			}
		}
		var best MatchCandidate
		found := false
		for _, w := range windows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			score, err := g.sim.Similarity(ctx, textutil.Normalize(stage.Text), textutil.Normalize(w.Text))
			if err != nil {
				return nil, err
			}
			pct := similarity.Clamp(score) * 100
			if !found || pct > best.Similarity {
				best = MatchCandidate{
					StageID:     stage.ID,
					SourceID:    src.ID,
					WindowStart: w.Start,
					WindowEnd:   w.End,
					Similarity:  pct,
					Duration:    w.Duration(),
					Text:        w.Text,
				}
				found = true
			}
		}
		if found {
			out = append(out, best)
		}
	}
	g.logger.Debug("source scored",
		logging.String(logging.FieldSourceID, src.ID),
		logging.Int("candidates", len(out)),
	)
	return out, nil
}

// bySimilarityDesc orders candidates by similarity; ties keep prior order.
func bySimilarityDesc(a, b MatchCandidate) int {
	switch {
	case a.Similarity > b.Similarity:
		return -1
	case a.Similarity < b.Similarity:
		return 1
	default:
		return 0
	}
}
