// Package subtitles parses and writes SRT subtitle files and locates the
// transcript for each source video.
//
// Transcription itself is an external service; the Transcriber interface is
// the boundary, and SidecarTranscriber satisfies it by finding an existing
// SRT next to (or alongside) the video so the pipeline can run offline.
package subtitles
