// Package ffprobe runs ffprobe and reads duration, frame size, frame rate and
// stream counts from its JSON output with gjson.
package ffprobe
