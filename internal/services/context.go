package services

import "context"

type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	sourceIDKey
)

// WithRunID stamps the pipeline run id on ctx. Empty ids leave ctx unchanged.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// WithStage stamps the stage name on ctx.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// WithSource stamps the source video id being processed on ctx.
func WithSource(ctx context.Context, sourceID string) context.Context {
	return withValue(ctx, sourceIDKey, sourceID)
}

func RunIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, runIDKey) }

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

func SourceFromContext(ctx context.Context) (string, bool) { return lookup(ctx, sourceIDKey) }

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}
