package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"promocut/internal/logging"
	"promocut/internal/services"
	"promocut/internal/stage"
)

// Options controls a single stage execution.
type Options struct {
	Logger  *slog.Logger
	Handler stage.Handler
	Number  int
	Run     *stage.Run
}

// Outcome records how a stage finished.
type Outcome struct {
	Number  int           `json:"number"`
	Name    string        `json:"name"`
	Label   string        `json:"label"`
	Skipped bool          `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// Run prepares and executes one stage, logging its lifecycle. A Prepare
// result of stage.ErrSkip ends the stage successfully without Execute.
func Run(ctx context.Context, opts Options) Outcome {
	outcome := Outcome{Number: opts.Number}
	if opts.Handler == nil {
		outcome.Err = services.Wrap(services.ErrConfiguration, "", "run stage",
			fmt.Sprintf("stage handler unavailable: step %d", opts.Number), nil)
		return outcome
	}
	if opts.Run == nil {
		outcome.Err = errors.New("run state is required")
		return outcome
	}
	outcome.Name = opts.Handler.Name()
	outcome.Label = StageLabel(outcome.Name)

	stageCtx := services.WithStage(ctx, outcome.Name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	started := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("step", opts.Number),
		logging.String("label", outcome.Label),
	)

	err := opts.Handler.Prepare(stageCtx, opts.Run)
	if errors.Is(err, stage.ErrSkip) {
		outcome.Skipped = true
		outcome.Elapsed = time.Since(started)
		stageLogger.Info("stage skipped",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.Int("step", opts.Number),
		)
		return outcome
	}
	if err == nil {
		err = opts.Handler.Execute(stageCtx, opts.Run)
	}
	outcome.Elapsed = time.Since(started)
	if err != nil {
		outcome.Err = err
		logFailure(stageLogger, opts.Number, err)
		return outcome
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("step", opts.Number),
		logging.Duration("elapsed", outcome.Elapsed),
	)
	return outcome
}

func logFailure(logger *slog.Logger, number int, stageErr error) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Int("step", number),
		logging.String("error_kind", services.Kind(stageErr)),
		logging.Error(stageErr),
	}
	if id, ok := services.SourceIDOf(stageErr); ok {
		attrs = append(attrs, logging.String(logging.FieldSourceID, id))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)
}

var titleCaser = cases.Title(language.English)

// StageLabel turns a stage name such as "clip_extraction" into "Clip Extraction".
func StageLabel(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	if name == "" {
		return ""
	}
	return titleCaser.String(name)
}
