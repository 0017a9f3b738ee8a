// Package segment groups timed subtitle lines into text segments.
package segment

import (
	"fmt"
	"log/slog"
	"strings"

	"promocut/internal/config"
	"promocut/internal/logging"
	"promocut/internal/subtitles"
	"promocut/internal/textutil"
)

// Segment is a contiguous span of transcript text from one source.
type Segment struct {
	SourceID string           `json:"file"`
	Start    float64          `json:"start_seconds"`
	End      float64          `json:"end_seconds"`
	Text     string           `json:"text"`
	Lines    []subtitles.Line `json:"-"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Key identifies a segment by source and time range.
func (s Segment) Key() string {
	return fmt.Sprintf("%s@%.3f-%.3f", s.SourceID, s.Start, s.End)
}

// Options tunes the grouping thresholds.
type Options struct {
	// MinSegmentLength is the word count below which a line is merged into
	// its predecessor (or dropped when it cannot be merged).
	MinSegmentLength int
	MergeGap         float64
	SplitGap         float64
}

// DefaultOptions returns the standard thresholds: 3 words, 2s merge gap, 3s split gap.
func DefaultOptions() Options {
	return Options{MinSegmentLength: 3, MergeGap: 2.0, SplitGap: 3.0}
}

// OptionsFromConfig reads the [segmenter] section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinSegmentLength: cfg.Segmenter.MinSegmentLength,
		MergeGap:         cfg.Segmenter.MergeGapSeconds,
		SplitGap:         cfg.Segmenter.SplitGapSeconds,
	}
}

// Segmenter groups subtitle lines into segments.
type Segmenter struct {
	opts   Options
	logger *slog.Logger
}

// NewSegmenter constructs a Segmenter.
func NewSegmenter(opts Options, logger *slog.Logger) *Segmenter {
	return &Segmenter{opts: opts, logger: logging.NewComponentLogger(logger, "segmenter")}
}

// Segment groups ordered lines for one source. Input lines are not modified.
func (s *Segmenter) Segment(sourceID string, lines []subtitles.Line) []Segment {
	var (
		segments []Segment
		group    []subtitles.Line
		dropped  int
	)
	closeGroup := func() {
		if len(group) == 0 {
			return
		}
		texts := make([]string, 0, len(group))
		for _, line := range group {
			texts = append(texts, line.Text)
		}
		segments = append(segments, Segment{
			SourceID: sourceID,
			Start:    group[0].Start,
			End:      group[len(group)-1].End,
			Text:     strings.Join(texts, " "),
			Lines:    group,
		})
		group = nil
	}

	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		line.Text = text

		if textutil.WordCount(text) < s.opts.MinSegmentLength {
			if len(group) > 0 {
				last := &group[len(group)-1]
				if line.Start-last.End < s.opts.MergeGap {
					last.Text += " " + text
					last.End = line.End
					continue
				}
			}
			dropped++
			s.logger.Debug("short subtitle line dropped",
				logging.String(logging.FieldSourceID, sourceID),
				logging.Float64("start", line.Start),
				logging.String("text", text),
			)
			continue
		}

		if len(group) > 0 && line.Start-group[len(group)-1].End > s.opts.SplitGap {
			closeGroup()
		}
		group = append(group, line)
	}
	closeGroup()

	s.logger.Debug("segmentation complete",
		logging.String(logging.FieldSourceID, sourceID),
		logging.Int("lines", len(lines)),
		logging.Int("segments", len(segments)),
		logging.Int("dropped", dropped),
	)
	return segments
}
