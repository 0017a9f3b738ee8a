package clipindex

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"promocut/internal/fileutil"
	"promocut/internal/logging"
)

// FileName is the index file name inside the clips directory.
const FileName = "clip_index.json"

const timeEpsilon = 0.001

// Entry describes one extracted clip.
type Entry struct {
	SourceFile  string  `json:"source_file"`
	Category    string  `json:"category"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Duration    float64 `json:"duration"`
	OriginalFPS float64 `json:"original_fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Index is a clip repository persisted as a JSON file.
type Index struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// Open loads the index at path. A missing file yields an empty index; a
// malformed one is an error.
func Open(path string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	idx := &Index{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "clipindex"),
		entries: make(map[string]Entry),
	}
	var loaded map[string]Entry
	if err := fileutil.ReadJSON(path, &loaded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return idx, nil
		}
		return nil, fmt.Errorf("load clip index: %w", err)
	}
	for clip, entry := range loaded {
		idx.entries[filepath.Clean(clip)] = entry
	}
	idx.logger.Debug("loaded clip index",
		logging.Int("entry_count", len(idx.entries)),
		logging.String("path", path))
	return idx, nil
}

// Path returns the backing file.
func (i *Index) Path() string { return i.path }

// Put records a clip and persists the index.
func (i *Index) Put(clipPath string, entry Entry) error {
	clipPath = strings.TrimSpace(clipPath)
	if clipPath == "" {
		return errors.New("clip path cannot be empty")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[filepath.Clean(clipPath)] = entry
	if err := fileutil.WriteJSON(i.path, i.entries); err != nil {
		return fmt.Errorf("persist clip index: %w", err)
	}
	i.logger.Debug("clip indexed",
		logging.String("clip", clipPath),
		logging.String("category", entry.Category),
		logging.Float64("duration", entry.Duration))
	return nil
}

// Get returns the entry for clipPath. When the exact path is unknown, an
// entry with the same file name is returned.
func (i *Index) Get(clipPath string) (Entry, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	clipPath = filepath.Clean(clipPath)
	if entry, ok := i.entries[clipPath]; ok {
		return entry, true
	}
	base := filepath.Base(clipPath)
	for _, path := range i.sortedPathsLocked() {
		if filepath.Base(path) == base {
			return i.entries[path], true
		}
	}
	return Entry{}, false
}

// Find returns the clip cut from source over [start, end), if one exists.
func (i *Index) Find(sourceFile string, start, end float64) (string, Entry, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, path := range i.sortedPathsLocked() {
		entry := i.entries[path]
		if entry.SourceFile == sourceFile &&
			math.Abs(entry.StartTime-start) < timeEpsilon &&
			math.Abs(entry.EndTime-end) < timeEpsilon {
			return path, entry, true
		}
	}
	return "", Entry{}, false
}

// ByCategory returns the clip paths recorded for category in path order.
func (i *Index) ByCategory(category string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []string
	for _, path := range i.sortedPathsLocked() {
		if i.entries[path].Category == category {
			out = append(out, path)
		}
	}
	return out
}

// Len returns the number of indexed clips.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func (i *Index) sortedPathsLocked() []string {
	paths := make([]string, 0, len(i.entries))
	for path := range i.entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}
