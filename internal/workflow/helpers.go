package workflow

import (
	"context"
	"errors"

	"promocut/internal/services"
	"promocut/internal/stage"
)

func workers(run *stage.Run) int {
	if run.Config == nil || run.Config.Workflow.MaxConcurrency <= 0 {
		return 1
	}
	return run.Config.Workflow.MaxConcurrency
}

func canceledOr(ctx context.Context, stageName string, err error) error {
	if ctx.Err() != nil {
		return services.Wrap(services.ErrCanceled, stageName, "wait", "Run canceled", ctx.Err())
	}
	return err
}

// skipUnlessWritable returns stage.ErrSkip when path exists and the operator
// declined to overwrite it.
func skipUnlessWritable(run *stage.Run, path string) error {
	if run.MayOverwrite(path) {
		return nil
	}
	return stage.ErrSkip
}

func isMissing(err error) bool {
	return errors.Is(err, services.ErrMissingInput)
}
