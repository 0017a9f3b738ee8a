// Package logging assembles structured slog loggers and formatting helpers used
// across promocut.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code tags log lines
// with run IDs, stage names, and source video IDs automatically. A no-op
// logger is provided for tests and for wiring code that cannot fail.
package logging
