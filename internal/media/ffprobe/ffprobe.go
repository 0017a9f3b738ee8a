package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Probe is the subset of ffprobe output the pipeline records for clips and
// final videos.
type Probe struct {
	Duration     float64
	Width        int
	Height       int
	FPS          float64
	VideoStreams int
	AudioStreams int
}

// HasVideo reports whether the container carries at least one video stream.
func (p Probe) HasVideo() bool { return p.VideoStreams > 0 }

var probeArgs = []string{
	"-v", "error",
	"-show_entries", "format=duration:stream=codec_type,width,height,duration,avg_frame_rate,r_frame_rate",
	"-of", "json",
}

// Inspect runs ffprobe on path and parses the result.
func Inspect(ctx context.Context, binary, path string) (Probe, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Probe{}, errors.New("ffprobe: empty path")
	}
	args := append(append([]string{}, probeArgs...), "--", path)
	output, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Probe{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Probe{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return Parse(output)
}

// Parse reads an ffprobe JSON payload. The first video stream supplies size
// and frame rate. Duration comes from the container, or from that stream when
// the container omits it.
func Parse(payload []byte) (Probe, error) {
	if !gjson.ValidBytes(payload) {
		return Probe{}, errors.New("ffprobe: malformed json payload")
	}
	doc := gjson.ParseBytes(payload)
	var p Probe
	doc.Get("streams").ForEach(func(_, stream gjson.Result) bool {
		switch strings.ToLower(stream.Get("codec_type").String()) {
		case "video":
			p.VideoStreams++
		case "audio":
			p.AudioStreams++
		}
		return true
	})
	p.Duration = seconds(doc.Get("format.duration").String())

	video := doc.Get(`streams.#(codec_type=="video")`)
	if !video.Exists() {
		return p, nil
	}
	p.Width = int(video.Get("width").Int())
	p.Height = int(video.Get("height").Int())
	p.FPS = ratio(video.Get("avg_frame_rate").String())
	if p.FPS == 0 {
		p.FPS = ratio(video.Get("r_frame_rate").String())
	}
	if p.Duration == 0 {
		p.Duration = seconds(video.Get("duration").String())
	}
	return p, nil
}

// ratio parses "30000/1001" or a plain number. Zero means unknown.
func ratio(value string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return seconds(num)
	}
	n, d := seconds(num), seconds(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func seconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
