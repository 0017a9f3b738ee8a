// Package stage defines the contract between the pipeline runner and the
// numbered stages it executes.
//
// Stages are registered by step number in a Registry at startup. The runner
// resolves a contiguous range of steps (for --steps N-M); an unregistered
// number is a configuration error rather than a silent substitution. Each
// handler reports its readiness through HealthCheck, which the doctor command
// renders.
package stage
