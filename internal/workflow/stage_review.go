package workflow

import (
	"context"
	"log/slog"

	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/logging"
	"promocut/internal/services"
	"promocut/internal/stage"
)

// ReviewStage promotes the initial taxonomy to
// Analysis/modified_key_dimensions.json, the file operators edit by hand and
// that matching prefers.
type ReviewStage struct {
	env    *Env
	logger *slog.Logger
}

// NewReviewStage constructs stage 3.
func NewReviewStage(env *Env) *ReviewStage {
	return &ReviewStage{env: env, logger: logging.NewComponentLogger(env.Logger, "review")}
}

func (s *ReviewStage) Name() string { return "review" }

func (s *ReviewStage) SetLogger(logger *slog.Logger) { s.logger = logger }

// Prepare requires the initial taxonomy and asks before replacing an edited one.
func (s *ReviewStage) Prepare(ctx context.Context, run *stage.Run) error {
	initial := run.Output(AnalysisDir, InitialDimensionsFile)
	if !fileutil.Exists(initial) {
		return services.Wrap(services.ErrMissingInput, "review", "prepare",
			"Missing "+initial+"; run step 2 first", nil)
	}
	return skipUnlessWritable(run, run.Output(AnalysisDir, ModifiedDimensionsFile))
}

func (s *ReviewStage) Execute(ctx context.Context, run *stage.Run) error {
	tree, err := dimension.LoadFile(run.Output(AnalysisDir, InitialDimensionsFile))
	if err != nil {
		return err
	}
	out := run.Output(AnalysisDir, ModifiedDimensionsFile)
	if err := fileutil.WriteJSON(out, tree); err != nil {
		return err
	}
	s.logger.Info("dimensions ready for review",
		logging.String("path", out),
		logging.String(logging.FieldErrorHint, "edit the file, then run --steps 4-6"),
	)
	return nil
}

func (s *ReviewStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.Name())
}
