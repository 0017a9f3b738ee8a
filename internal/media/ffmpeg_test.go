package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"promocut/internal/logging"
	"promocut/internal/services"
)

func testFFmpeg(binary string) *FFmpeg {
	return NewFFmpeg(FFmpegOptions{
		FFmpegBinary: binary,
		Width:        1280,
		Height:       720,
		FPS:          30,
		Retry:        services.RetryPolicy{Attempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}, logging.NewNop())
}

func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestExtractArgs(t *testing.T) {
	args := testFFmpeg("ffmpeg").extractArgs("in.mp4", 1.5, 6.25, "out.mp4")
	joined := strings.Join(args, " ")
	for _, want := range []string{"-ss 1.500", "-i in.mp4", "-t 4.750", "fps=30", "scale=1280:720", "-c:v libx264", "-ar 44100"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("extract args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output should be last, got %q", args[len(args)-1])
	}
}

func TestFadeArgs(t *testing.T) {
	f := testFFmpeg("ffmpeg")
	tests := []struct {
		name    string
		in, out float64
		want    []string
		notWant []string
	}{
		{"both", 0.5, 0.5, []string{"fade=t=in:st=0:d=0.500,fade=t=out:st=4.500:d=0.500", "afade=t=out:st=4.500:d=0.500"}, []string{"-c copy"}},
		{"in only", 0.5, 0, []string{"fade=t=in:st=0:d=0.500"}, []string{"fade=t=out"}},
		{"none", 0, 0, []string{"-c copy"}, []string{"-vf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := strings.Join(f.fadeArgs("clip.mp4", 5, tt.in, tt.out, "faded.mp4"), " ")
			for _, want := range tt.want {
				if !strings.Contains(joined, want) {
					t.Fatalf("missing %q in %s", want, joined)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(joined, bad) {
					t.Fatalf("unexpected %q in %s", bad, joined)
				}
			}
		})
	}
}

func TestEndSlateArgs(t *testing.T) {
	args := testFFmpeg("ffmpeg").endSlateArgs(EndSlate{Text: "hi", Duration: 5, Fade: 0.5, Style: StyleFor("business")}, "/tmp/a:b.txt", "slate.mp4")
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"color=c=0x0b2545:s=1280x720:r=30:d=5.000",
		`textfile=/tmp/a\:b.txt`,
		"box=1",
		"fade=t=out:st=4.500:d=0.500",
		"-shortest slate.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("end slate args missing %q: %s", want, joined)
		}
	}
}

func TestConcatWritesListFile(t *testing.T) {
	stub := writeStub(t, "exit 0\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "final.mp4")
	clip, err := testFFmpeg(stub).Concat(context.Background(), []Clip{
		{Path: filepath.Join(dir, "a.mp4"), Duration: 5},
		{Path: filepath.Join(dir, "it's.mp4"), Duration: 3},
	}, out)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if clip.Duration != 8 {
		t.Fatalf("duration = %v, want 8", clip.Duration)
	}
	data, err := os.ReadFile(filepath.Join(dir, "final_list.txt"))
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "a.mp4'") || !strings.Contains(lines[1], `it'\''s.mp4`) {
		t.Fatalf("unexpected list file:\n%s", data)
	}
}

func TestRunFailureIsRetriedAsExternalService(t *testing.T) {
	dir := t.TempDir()
	counter := filepath.Join(dir, "calls")
	stub := writeStub(t, "echo x >> "+counter+"\necho 'Invalid data found' >&2\nexit 1\n")
	_, err := testFFmpeg(stub).ExtractClip(context.Background(), "in.mp4", 0, 3, filepath.Join(dir, "out", "clip.mp4"))
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
	data, _ := os.ReadFile(counter)
	if calls := strings.Count(string(data), "x"); calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestMissingBinaryIsConfigurationError(t *testing.T) {
	f := testFFmpeg(filepath.Join(t.TempDir(), "missing-ffmpeg"))
	_, err := f.ExtractClip(context.Background(), "in.mp4", 0, 3, filepath.Join(t.TempDir(), "clip.mp4"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestExtractRejectsEmptyRange(t *testing.T) {
	_, err := testFFmpeg("ffmpeg").ExtractClip(context.Background(), "in.mp4", 3, 3, "clip.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestVideoExtensionsIncludeMP4First(t *testing.T) {
	if !slices.Contains(VideoExtensions, ".mp4") || VideoExtensions[0] != ".mp4" {
		t.Fatalf("unexpected extension order: %v", VideoExtensions)
	}
}
