// Package services defines shared utilities consumed by the pipeline stages and
// their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and source identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     missing input, external service, validation, or unsatisfiable constraint.
//   - Retry with bounded exponential backoff for calls into external services
//     (similarity endpoints, media engine subprocesses).
//
// Use these helpers when wiring new stage logic so error handling and retries
// stay uniform across the pipeline.
package services
