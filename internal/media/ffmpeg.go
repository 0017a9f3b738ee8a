package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"promocut/internal/config"
	"promocut/internal/logging"
	"promocut/internal/media/ffprobe"
	"promocut/internal/services"
)

const (
	audioRate     = "44100"
	audioChannels = "2"
	maxErrorTail  = 400
)

// FFmpegOptions configures the ffmpeg-backed Engine.
type FFmpegOptions struct {
	FFmpegBinary  string
	FFprobeBinary string
	Width         int
	Height        int
	FPS           int
	Timeout       time.Duration
	Retry         services.RetryPolicy
	FontFile      string
}

// FFmpegOptionsFromConfig reads the [media] and [retry] sections.
func FFmpegOptionsFromConfig(cfg *config.Config) FFmpegOptions {
	return FFmpegOptions{
		FFmpegBinary:  cfg.Media.FFmpegBinary,
		FFprobeBinary: cfg.Media.FFprobeBinary,
		Width:         cfg.Media.Width,
		Height:        cfg.Media.Height,
		FPS:           cfg.Media.FPS,
		Timeout:       time.Duration(cfg.Media.TimeoutSeconds) * time.Second,
		Retry:         cfg.RetryPolicy(),
	}
}

// FFmpeg runs the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	opts   FFmpegOptions
	logger *slog.Logger
}

// NewFFmpeg returns an ffmpeg-backed Engine.
func NewFFmpeg(opts FFmpegOptions, logger *slog.Logger) *FFmpeg {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(opts.FFprobeBinary) == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	return &FFmpeg{opts: opts, logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

// ExtractClip re-encodes [start, end) of source to the engine's canvas.
func (f *FFmpeg) ExtractClip(ctx context.Context, source string, start, end float64, output string) (Clip, error) {
	if end <= start {
		return Clip{}, services.Wrap(services.ErrValidation, "media", "extract clip",
			fmt.Sprintf("Empty time range %.3f-%.3f", start, end), nil)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Clip{}, fmt.Errorf("create clip dir: %w", err)
	}
	if err := f.run(ctx, "extract clip", f.extractArgs(source, start, end, output)); err != nil {
		return Clip{}, err
	}
	return Clip{Path: output, Duration: end - start}, nil
}

// AddFade applies video and audio fades at the clip edges.
func (f *FFmpeg) AddFade(ctx context.Context, clip Clip, fadeIn, fadeOut float64, output string) (Clip, error) {
	duration := clip.Duration
	if duration <= 0 {
		meta, err := f.Metadata(ctx, clip.Path)
		if err != nil {
			return Clip{}, err
		}
		duration = meta.Duration
	}
	if err := f.run(ctx, "add fade", f.fadeArgs(clip.Path, duration, fadeIn, fadeOut, output)); err != nil {
		return Clip{}, err
	}
	return Clip{Path: output, Duration: duration}, nil
}

// Concat joins clips with the concat demuxer. The list file is written next
// to output.
func (f *FFmpeg) Concat(ctx context.Context, clips []Clip, output string) (Clip, error) {
	if len(clips) == 0 {
		return Clip{}, services.Wrap(services.ErrMissingInput, "media", "concat", "No clips to concatenate", nil)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Clip{}, fmt.Errorf("create output dir: %w", err)
	}
	listPath := strings.TrimSuffix(output, filepath.Ext(output)) + "_list.txt"
	var list strings.Builder
	total := 0.0
	for _, clip := range clips {
		abs, err := filepath.Abs(clip.Path)
		if err != nil {
			return Clip{}, fmt.Errorf("resolve clip path: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
		total += clip.Duration
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return Clip{}, fmt.Errorf("write concat list: %w", err)
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", output}
	if err := f.run(ctx, "concat", args); err != nil {
		return Clip{}, err
	}
	return Clip{Path: output, Duration: total}, nil
}

// Metadata probes path with ffprobe.
func (f *FFmpeg) Metadata(ctx context.Context, path string) (Metadata, error) {
	var meta Metadata
	err := services.Retry(ctx, f.opts.Retry, func(ctx context.Context) error {
		callCtx, cancel := f.withTimeout(ctx)
		defer cancel()
		probe, err := ffprobe.Inspect(callCtx, f.opts.FFprobeBinary, path)
		if err != nil {
			return services.Wrap(services.ErrExternalService, "media", "metadata", "ffprobe failed for "+path, err)
		}
		if !probe.HasVideo() {
			return services.Wrap(services.ErrValidation, "media", "metadata", path+" has no video stream", nil)
		}
		meta = Metadata{Duration: probe.Duration, Width: probe.Width, Height: probe.Height, FPS: probe.FPS}
		return nil
	})
	return meta, err
}

// RenderEndSlate draws slate.Text centered on a solid background. The text is
// written to a file beside output so drawtext needs no escaping of it.
func (f *FFmpeg) RenderEndSlate(ctx context.Context, slate EndSlate, output string) (Clip, error) {
	if slate.Duration <= 0 {
		return Clip{}, services.Wrap(services.ErrValidation, "media", "end slate", "End slate duration must be positive", nil)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Clip{}, fmt.Errorf("create output dir: %w", err)
	}
	textPath := strings.TrimSuffix(output, filepath.Ext(output)) + "_text.txt"
	if err := os.WriteFile(textPath, []byte(slate.Text), 0o644); err != nil {
		return Clip{}, fmt.Errorf("write end slate text: %w", err)
	}
	if err := f.run(ctx, "end slate", f.endSlateArgs(slate, textPath, output)); err != nil {
		return Clip{}, err
	}
	return Clip{Path: output, Duration: slate.Duration}, nil
}

func (f *FFmpeg) canvasFilter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d",
		f.opts.Width, f.opts.Height, f.opts.Width, f.opts.Height, f.opts.FPS)
}

func (f *FFmpeg) encodeArgs() []string {
	return []string{
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-ar", audioRate, "-ac", audioChannels,
	}
}

func (f *FFmpeg) extractArgs(source string, start, end float64, output string) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-i", source,
		"-t", formatSeconds(end - start),
		"-map", "0:v:0", "-map", "0:a:0?",
		"-vf", f.canvasFilter(),
	}
	args = append(args, f.encodeArgs()...)
	return append(args, output)
}

func (f *FFmpeg) fadeArgs(input string, duration, fadeIn, fadeOut float64, output string) []string {
	var video, audio []string
	if fadeIn > 0 {
		video = append(video, "fade=t=in:st=0:d="+formatSeconds(fadeIn))
		audio = append(audio, "afade=t=in:st=0:d="+formatSeconds(fadeIn))
	}
	if fadeOut > 0 {
		st := formatSeconds(max(duration-fadeOut, 0))
		video = append(video, "fade=t=out:st="+st+":d="+formatSeconds(fadeOut))
		audio = append(audio, "afade=t=out:st="+st+":d="+formatSeconds(fadeOut))
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input}
	if len(video) > 0 {
		args = append(args, "-vf", strings.Join(video, ","), "-af", strings.Join(audio, ","))
		args = append(args, f.encodeArgs()...)
	} else {
		args = append(args, "-c", "copy")
	}
	return append(args, output)
}

func (f *FFmpeg) endSlateArgs(slate EndSlate, textPath, output string) []string {
	style := slate.Style
	if style.Name == "" {
		style = StyleFor("")
	}
	size := fmt.Sprintf("%dx%d", f.opts.Width, f.opts.Height)
	draw := []string{
		"textfile=" + escapeFilterValue(textPath),
		"fontcolor=" + style.FontColor,
		"fontsize=" + strconv.Itoa(style.FontSize),
		"x=(w-text_w)/2",
		"y=(h-text_h)/2",
	}
	if f.opts.FontFile != "" {
		draw = append(draw, "fontfile="+escapeFilterValue(f.opts.FontFile))
	}
	if style.BoxColor != "" {
		draw = append(draw, "box=1", "boxcolor="+style.BoxColor, "boxborderw=24")
	}
	filters := []string{"drawtext=" + strings.Join(draw, ":")}
	if slate.Fade > 0 {
		filters = append(filters,
			"fade=t=in:st=0:d="+formatSeconds(slate.Fade),
			"fade=t=out:st="+formatSeconds(max(slate.Duration-slate.Fade, 0))+":d="+formatSeconds(slate.Fade),
		)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%s:r=%d:d=%s", style.Background, size, f.opts.FPS, formatSeconds(slate.Duration)),
		"-f", "lavfi", "-i", "anullsrc=r=" + audioRate + ":cl=stereo",
		"-t", formatSeconds(slate.Duration),
		"-vf", strings.Join(filters, ","),
	}
	args = append(args, f.encodeArgs()...)
	return append(args, "-shortest", output)
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.opts.Timeout > 0 {
		return context.WithTimeout(ctx, f.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (f *FFmpeg) run(ctx context.Context, operation string, args []string) error {
	return services.Retry(ctx, f.opts.Retry, func(ctx context.Context) error {
		callCtx, cancel := f.withTimeout(ctx)
		defer cancel()
		started := time.Now()
		cmd := exec.CommandContext(callCtx, f.opts.FFmpegBinary, args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				return services.Wrap(services.ErrConfiguration, "media", operation,
					fmt.Sprintf("ffmpeg binary %q not found", f.opts.FFmpegBinary), err)
			}
			return services.Wrap(services.ErrExternalService, "media", operation, tail(out), err)
		}
		f.logger.Debug("ffmpeg finished",
			logging.String("operation", operation),
			logging.Duration("elapsed", time.Since(started)),
			logging.String("output", args[len(args)-1]),
		)
		return nil
	})
}

func tail(out []byte) string {
	msg := strings.TrimSpace(string(out))
	if len(msg) > maxErrorTail {
		msg = "..." + msg[len(msg)-maxErrorTail:]
	}
	if msg == "" {
		msg = "ffmpeg exited with an error"
	}
	return msg
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)

func escapeFilterValue(v string) string {
	return filterEscaper.Replace(v)
}
