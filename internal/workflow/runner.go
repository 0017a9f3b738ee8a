package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"promocut/internal/config"
	"promocut/internal/logging"
	"promocut/internal/runlock"
	"promocut/internal/services"
	"promocut/internal/stage"
	"promocut/internal/stageexec"
)

// ParseSteps parses "N-M" or "N" into an inclusive step range within
// FirstStep..LastStep. An empty value selects every step.
func ParseSteps(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return FirstStep, LastStep, nil
	}
	fromText, toText, isRange := strings.Cut(value, "-")
	if !isRange {
		toText = fromText
	}
	from, err := strconv.Atoi(strings.TrimSpace(fromText))
	if err != nil {
		return 0, 0, stepsError(value)
	}
	to, err := strconv.Atoi(strings.TrimSpace(toText))
	if err != nil {
		return 0, 0, stepsError(value)
	}
	if from < FirstStep || to > LastStep || from > to {
		return 0, 0, stepsError(value)
	}
	return from, to, nil
}

func stepsError(value string) error {
	return services.Wrap(services.ErrConfiguration, "", "parse steps",
		fmt.Sprintf("invalid --steps %q (want N-M within %d-%d)", value, FirstStep, LastStep), nil)
}

// NewRun creates the state for one invocation with a fresh run id.
func NewRun(cfg *config.Config, opts stage.Options) *stage.Run {
	if cfg.Workflow.SampleData {
		opts.SampleData = true
	}
	return &stage.Run{
		ID:        uuid.NewString(),
		Config:    cfg,
		InputDir:  cfg.Paths.InputDir,
		OutputDir: cfg.Paths.OutputDir,
		Options:   opts,
	}
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID    string
	From, To int
	Outcomes []stageexec.Outcome
}

// Failed returns the failing outcome, if any.
func (s Summary) Failed() (stageexec.Outcome, bool) {
	for _, o := range s.Outcomes {
		if o.Err != nil {
			return o, true
		}
	}
	return stageexec.Outcome{}, false
}

// Runner executes a contiguous step range.
type Runner struct {
	registry *stage.Registry
	logger   *slog.Logger
}

// NewRunner constructs a Runner over registry.
func NewRunner(registry *stage.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{registry: registry, logger: logger}
}

// Run executes steps from..to under the output directory lock. The first
// failing step aborts the rest and its error is returned.
func (r *Runner) Run(ctx context.Context, run *stage.Run, from, to int) (Summary, error) {
	summary := Summary{RunID: run.ID, From: from, To: to}
	steps, err := r.registry.Range(from, to)
	if err != nil {
		return summary, err
	}

	lock, err := runlock.Acquire(run.OutputDir)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	if err := run.Config.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "", "prepare output", "Cannot create output layout", err)
	}

	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("from_step", from),
		logging.Int("to_step", to),
		logging.String("input_dir", run.InputDir),
		logging.String("output_dir", run.OutputDir),
		logging.Bool("sample_data", run.Options.SampleData),
	)

	for _, step := range steps {
		outcome := stageexec.Run(ctx, stageexec.Options{
			Logger:  r.logger,
			Handler: step.Handler,
			Number:  step.Number,
			Run:     run,
		})
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Err != nil {
			logger.Error("run aborted",
				logging.String(logging.FieldEventType, "run_aborted"),
				logging.Int("failed_step", step.Number),
				logging.Int("skipped_steps", to-step.Number),
			)
			return summary, outcome.Err
		}
	}
	logger.Info("run completed", logging.String(logging.FieldEventType, "run_complete"))
	return summary, nil
}
