package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/media"
	"promocut/internal/services"
	"promocut/internal/stage"
)

// Output layout.
const (
	SubtitlesDir = "Subtitles"
	AnalysisDir  = "Analysis"
	MatchingDir  = "Matching"
	ClipsDir     = "Clips"
	TempDir      = "Temp"
	FinalDir     = "Final"
	VideosDir    = "Videos"

	SubtitleManifestFile   = "manifest.json"
	InitialDimensionsFile  = "initial_key_dimensions.json"
	ModifiedDimensionsFile = "modified_key_dimensions.json"
	ScoredSegmentsFile     = "segments_with_scores.json"
	SelectedSegmentsFile   = "selected_segments.json"
	SequencePlanFile       = "sequence_plan.json"
	DiversityPlanFile      = "diversity_plan.json"
	VideoIndexFile         = "video_index.json"
	FinalVideoFile         = "advertisement_final.mp4"
	RemixVideoFile         = "remix_final.mp4"
	SloganFile             = "slogan.txt"
)

// SubtitleManifest records what stage 1 produced.
type SubtitleManifest struct {
	RunID        string           `json:"run_id"`
	UseHotWords  bool             `json:"use_hot_words"`
	VocabularyID string           `json:"vocabulary_id,omitempty"`
	Sources      []SubtitleSource `json:"sources"`
}

// SubtitleSource is one manifest row.
type SubtitleSource struct {
	SourceID string `json:"source_id"`
	Video    string `json:"video,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Cues     int    `json:"cues"`
	Missing  bool   `json:"missing,omitempty"`
	Sample   bool   `json:"sample,omitempty"`
}

// VideoInfo is one Final/video_index.json entry.
type VideoInfo struct {
	Duration       float64 `json:"duration"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	ContainsSample bool    `json:"contains_sample"`
}

// sourceRef is a source id with its video, when one exists.
type sourceRef struct {
	ID    string
	Video string
}

// discoverSources lists the sources of an input directory: every video under
// Videos/ plus any Subtitles/*.srt without a video. Ids are sorted.
func discoverSources(inputDir string) ([]sourceRef, error) {
	byID := make(map[string]string)
	videos, err := os.ReadDir(filepath.Join(inputDir, VideosDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read videos dir: %w", err)
	}
	for _, entry := range videos {
		if entry.IsDir() || !media.IsVideoFile(entry.Name()) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, ok := byID[id]; !ok {
			byID[id] = filepath.Join(inputDir, VideosDir, entry.Name())
		}
	}
	srts, err := filepath.Glob(filepath.Join(inputDir, SubtitlesDir, "*.srt"))
	if err != nil {
		return nil, err
	}
	for _, path := range srts {
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, ok := byID[id]; !ok {
			byID[id] = ""
		}
	}
	refs := make([]sourceRef, 0, len(byID))
	for id, video := range byID {
		refs = append(refs, sourceRef{ID: id, Video: video})
	}
	slices.SortFunc(refs, func(a, b sourceRef) int { return strings.Compare(a.ID, b.ID) })
	return refs, nil
}

// loadDimensions reads the modified taxonomy, falling back to the initial one.
func loadDimensions(run *stage.Run) (*dimension.Tree, string, error) {
	for _, name := range []string{ModifiedDimensionsFile, InitialDimensionsFile} {
		path := run.Output(AnalysisDir, name)
		if !fileutil.Exists(path) {
			continue
		}
		tree, err := dimension.LoadFile(path)
		if err != nil {
			return nil, path, err
		}
		return tree, path, nil
	}
	return nil, "", services.Wrap(services.ErrMissingInput, "dimensions", "load",
		"No dimension file found in "+run.Output(AnalysisDir)+"; run step 2 first", nil)
}

// readArtifact decodes a JSON artifact written by an earlier stage.
func readArtifact(stageName, path string, v any) error {
	if err := fileutil.ReadJSON(path, v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrMissingInput, stageName, "read "+filepath.Base(path),
				"Missing "+path+"; run the earlier steps first", nil)
		}
		return services.Wrap(services.ErrValidation, stageName, "read "+filepath.Base(path), "Malformed artifact", err)
	}
	return nil
}

// updateVideoIndex records info for name in Final/video_index.json.
func updateVideoIndex(path, name string, info VideoInfo) error {
	index := make(map[string]VideoInfo)
	if err := fileutil.ReadJSON(path, &index); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load video index: %w", err)
	}
	index[name] = info
	return fileutil.WriteJSON(path, index)
}

// readSlogan returns <input>/slogan.txt, else the configured slogan.
func readSlogan(run *stage.Run) string {
	if data, err := os.ReadFile(run.Input(SloganFile)); err == nil {
		if s := strings.TrimSpace(string(data)); s != "" {
			return s
		}
	}
	return strings.TrimSpace(run.Config.Sequence.Slogan)
}
