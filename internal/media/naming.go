package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"promocut/internal/services"
	"promocut/internal/textutil"
)

// VideoExtensions are probed in order when resolving a source id.
var VideoExtensions = []string{".mp4", ".mov", ".avi", ".m4v", ".MOV", ".MP4"}

// CategoryDir returns the clip directory for a category.
func CategoryDir(clipsDir, category string) string {
	return filepath.Join(clipsDir, "Category_"+textutil.PathToken(category))
}

// ClipFileName names an extracted clip by category, source and time range.
func ClipFileName(category, sourceID string, start, end float64) string {
	return fmt.Sprintf("clip_%s_%s_%s_%s.mp4",
		textutil.PathToken(category),
		textutil.PathToken(sourceID),
		ClipTimestamp(start),
		ClipTimestamp(end),
	)
}

// ClipTimestamp formats seconds as 00h01m02s500.
func ClipTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02dh%02dm%02ds%03d", h, m, s, ms)
}

// FindVideo resolves a source id to a video under dir. It tries
// <dir>/<id><ext> for each of VideoExtensions, then any file whose base name
// without extension equals the id.
func FindVideo(dir, sourceID string) (string, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return "", services.Wrap(services.ErrValidation, "media", "find video", "Empty source id", nil)
	}
	for _, ext := range VideoExtensions {
		candidate := filepath.Join(dir, sourceID+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("read video dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == sourceID && IsVideoFile(name) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", services.WithSourceID(
		services.Wrap(services.ErrMissingInput, "media", "find video", "No video found for source in "+dir, nil),
		sourceID,
	)
}

// IsVideoFile reports whether name has a known video extension.
func IsVideoFile(name string) bool {
	ext := filepath.Ext(name)
	for _, known := range VideoExtensions {
		if strings.EqualFold(ext, known) {
			return true
		}
	}
	return false
}
