// Package media turns a sequence plan into a video.
//
// Engine is the boundary to the media toolchain: clip extraction, fades,
// concatenation, metadata and end-slate rendering. FFmpeg implements it by
// running the ffmpeg and ffprobe binaries, retrying transient failures with
// the shared retry policy. Assembler drives an Engine over a plan on a bounded
// worker pool and always concatenates in plan order regardless of which
// worker finishes first.
package media
