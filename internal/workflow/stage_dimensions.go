package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/services"
	"promocut/internal/stage"
)

// DimensionStage loads the topic taxonomy (or keyword list) into
// Analysis/initial_key_dimensions.json.
type DimensionStage struct {
	env    *Env
	logger *slog.Logger
}

// NewDimensionStage constructs stage 2.
func NewDimensionStage(env *Env) *DimensionStage {
	return &DimensionStage{env: env, logger: logging.NewComponentLogger(env.Logger, "dimensions")}
}

func (s *DimensionStage) Name() string { return "dimensions" }

func (s *DimensionStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *DimensionStage) Prepare(context.Context, *stage.Run) error { return nil }

// Execute prefers a taxonomy file under <input>/Analysis, then the configured
// keywords. A malformed taxonomy aborts the run.
func (s *DimensionStage) Execute(ctx context.Context, run *stage.Run) error {
	tree, origin, err := s.resolve(run)
	if err != nil {
		return err
	}
	if err := tree.Validate(); err != nil {
		return err
	}
	out := run.Output(AnalysisDir, InitialDimensionsFile)
	if err := fileutil.WriteJSON(out, tree); err != nil {
		return err
	}
	s.logger.Info("dimensions written",
		logging.String("origin", origin),
		logging.Int("level_1", tree.Len()),
		logging.String("path", out),
	)
	return nil
}

func (s *DimensionStage) resolve(run *stage.Run) (*dimension.Tree, string, error) {
	matches, err := filepath.Glob(run.Input(AnalysisDir, "*key_dimensions.json"))
	if err != nil {
		return nil, "", err
	}
	slices.Sort(matches)
	if len(matches) > 0 {
		tree, err := dimension.LoadFile(matches[0])
		if err != nil {
			return nil, "", err
		}
		return tree, matches[0], nil
	}
	if keywords := run.Config.Scoring.Keywords; len(keywords) > 0 {
		tree := dimension.FromKeywords(keywords)
		if tree.Len() > 0 {
			return tree, "scoring.keywords", nil
		}
	}
	if run.Options.SampleData {
		logging.WarnWithContext(s.logger, "using sample dimensions", "sample_data",
			logging.String(logging.FieldErrorHint, "provide Analysis/key_dimensions.json or scoring.keywords"),
			logging.String(logging.FieldImpact, "segments are scored against a placeholder taxonomy"),
		)
		return sampleTree(), "sample", nil
	}
	return nil, "", services.Wrap(services.ErrMissingInput, "dimensions", "resolve",
		"No dimension file under "+run.Input(AnalysisDir)+" and no scoring.keywords configured", nil)
}

func (s *DimensionStage) HealthCheck(context.Context) stage.Health {
	if s.env == nil || s.env.Config == nil {
		return stage.Unhealthy(s.Name(), "configuration unavailable")
	}
	return stage.Healthy(s.Name())
}
