package stage

import (
	"context"
	"errors"
	"log/slog"
)

// ErrSkip is returned by Prepare when the stage has nothing to do, for example
// when the operator declined to overwrite its outputs. The run continues.
var ErrSkip = errors.New("stage skipped")

// Handler describes the contract the workflow runner needs from each stage.
type Handler interface {
	Name() string
	Prepare(context.Context, *Run) error
	Execute(context.Context, *Run) error
	HealthCheck(context.Context) Health
}

// LoggerAware handlers receive a logger carrying the run and stage fields
// before Prepare is called.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
