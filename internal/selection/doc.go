// Package selection picks a duration-bounded, non-overlapping subset of scored
// segments for clip extraction.
//
// Selection is a greedy pass per category followed by duration reconciliation.
// Neither the overlap pass nor the backfill revisits an earlier decision, so
// the result is a heuristic fit to the target window rather than an optimum.
// When the window cannot be reached the Result carries a shortfall flag and
// callers decide whether that is acceptable.
package selection
