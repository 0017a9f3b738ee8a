package stage

import (
	"os"
	"path/filepath"

	"promocut/internal/config"
)

// Options are the per-invocation switches from the command line.
type Options struct {
	UseHotWords  bool
	VocabularyID string
	Batch        bool
	SampleData   bool
}

// Run is the state shared by the stages of one pipeline invocation. Stages
// exchange data through files under OutputDir.
type Run struct {
	ID        string
	Config    *config.Config
	InputDir  string
	OutputDir string
	Options   Options

	// Confirm asks whether an existing output may be overwritten. Nil means yes.
	Confirm func(path string) bool
}

// Output joins parts under the output directory.
func (r *Run) Output(parts ...string) string {
	return filepath.Join(append([]string{r.OutputDir}, parts...)...)
}

// Input joins parts under the input directory.
func (r *Run) Input(parts ...string) string {
	return filepath.Join(append([]string{r.InputDir}, parts...)...)
}

// MayOverwrite reports whether path can be written. Missing files and batch
// runs never prompt.
func (r *Run) MayOverwrite(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return true
	}
	if r.Options.Batch || r.Confirm == nil {
		return true
	}
	return r.Confirm(path)
}
