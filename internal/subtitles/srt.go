package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"promocut/internal/services"
)

// Line is one timed subtitle cue.
type Line struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End - Start.
func (l Line) Duration() float64 {
	return l.End - l.Start
}

// Parse reads SRT cues from r. Cues with malformed timing lines or
// non-positive duration are skipped; text lines within a cue are joined by a space.
func Parse(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lines   []Line
		current *Line
		text    []string
	)
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(text, " "))
			if current.Text != "" && current.End > current.Start {
				lines = append(lines, *current)
			}
		}
		current = nil
		text = text[:0]
	}

	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		raw = strings.TrimPrefix(raw, "\ufeff")
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			flush()
		case strings.Contains(trimmed, "-->"):
			flush()
			start, end, err := parseTiming(trimmed)
			if err != nil {
				continue
			}
			current = &Line{Start: start, End: end}
		case current == nil:
			// cue index or stray text before a timing line
		default:
			text = append(text, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan srt: %w", err)
	}
	flush()
	return lines, nil
}

// ParseFile parses the SRT at path. A missing file yields ErrMissingInput.
func ParseFile(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrMissingInput, "subtitles", "read srt", "Subtitle file not found: "+path, err)
		}
		return nil, fmt.Errorf("read srt: %w", err)
	}
	lines, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Write renders lines as SRT to w using 1-based cue numbers.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for i, line := range lines {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(line.Start), FormatTimestamp(line.End), line.Text); err != nil {
			return fmt.Errorf("write srt: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes lines to path as SRT.
func WriteFile(path string, lines []Line) error {
	var buf bytes.Buffer
	if err := Write(&buf, lines); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write srt %s: %w", path, err)
	}
	return nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	minutes := (totalMillis / 60_000) % 60
	secs := (totalMillis / 1000) % 60
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

func parseTiming(line string) (float64, float64, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// Positional hints such as "X1:..." may follow the end timestamp.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp parses HH:MM:SS,mmm (a period is accepted for the millisecond separator).
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Bounds returns the earliest start and latest end across lines.
func Bounds(lines []Line) (float64, float64) {
	if len(lines) == 0 {
		return 0, 0
	}
	first := math.Inf(1)
	var last float64
	for _, line := range lines {
		first = math.Min(first, line.Start)
		last = math.Max(last, line.End)
	}
	return first, last
}
