package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"promocut/internal/config"
	"promocut/internal/services"
)

// Binary is an external program the media engine shells out to.
type Binary struct {
	Name    string
	Command string
	Purpose string
}

// Check is the lookup result for one binary. Path is the resolved location
// when the lookup succeeded.
type Check struct {
	Binary
	Path string
	Err  error
}

// OK reports whether the binary resolved.
func (c Check) OK() bool { return c.Err == nil }

// Report is the ordered result of Inspect.
type Report []Check

// Ready reports whether every binary resolved.
func (r Report) Ready() bool {
	for _, c := range r {
		if !c.OK() {
			return false
		}
	}
	return true
}

// Err joins the failures into one configuration error, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, c := range r {
		if !c.OK() {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "deps", "inspect", "Media binaries unavailable", errors.Join(errs...))
}

// MediaBinaries lists the ffmpeg and ffprobe commands configured in cfg.
func MediaBinaries(cfg *config.Config) []Binary {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return []Binary{
		{Name: "ffmpeg", Command: cfg.Media.FFmpegBinary, Purpose: "clip extraction, fades, concat, end slates"},
		{Name: "ffprobe", Command: cfg.Media.FFprobeBinary, Purpose: "clip and final video metadata"},
	}
}

// Inspect resolves each binary on PATH.
func Inspect(binaries []Binary) Report {
	report := make(Report, 0, len(binaries))
	for _, bin := range binaries {
		bin.Command = strings.TrimSpace(bin.Command)
		check := Check{Binary: bin}
		switch {
		case bin.Command == "":
			check.Err = errors.New("command not configured")
		default:
			path, err := exec.LookPath(bin.Command)
			if err != nil {
				check.Err = fmt.Errorf("%q not found", bin.Command)
			} else {
				check.Path = path
			}
		}
		report = append(report, check)
	}
	return report
}

// ProbeFor picks the ffprobe that matches an ffmpeg command. A configured
// ffprobe other than the bare default wins; otherwise an executable ffprobe
// beside the resolved ffmpeg is used so static builds probe with their own
// version. The bare name on PATH is the last resort.
func ProbeFor(ffmpegCommand, ffprobeCommand string) (string, bool) {
	configured := strings.TrimSpace(ffprobeCommand)
	if configured != "" && configured != "ffprobe" {
		if path, err := exec.LookPath(configured); err == nil {
			return path, true
		}
	}
	if ffmpeg, err := exec.LookPath(strings.TrimSpace(ffmpegCommand)); err == nil {
		sibling := filepath.Join(filepath.Dir(ffmpeg), executable("ffprobe"))
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() && runnable(info) {
			return sibling, true
		}
	}
	if configured == "" {
		configured = "ffprobe"
	}
	if path, err := exec.LookPath(configured); err == nil {
		return path, true
	}
	return configured, false
}

func executable(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func runnable(info os.FileInfo) bool {
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
