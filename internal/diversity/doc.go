// Package diversity assigns candidate windows from several source videos to
// the stages of a reference cut while spreading the assignment across sources.
//
// The matcher runs three greedy passes. Protected stages take their best
// candidate first and are never revisited. Remaining stages prefer unused
// sources above a relaxed similarity floor. A final repair pass swaps
// low-impact assignments onto unused sources until the diversity requirement
// is met or no swap can raise the distinct-source count. No pass backtracks,
// so the assignment is a heuristic and may miss a better global arrangement.
package diversity
