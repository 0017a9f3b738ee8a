// Package sequence orders selected material into the playback plan handed to
// the media assembler.
//
// Selection-based plans group segments by category in taxonomy order, sort
// each group by score, and close with an end-slate entry. Remix plans follow
// the reference stage order and may be clamped to the reference duration.
// Every plan computes its total duration and flags, without failing, a total
// outside the configured bounds.
package sequence
