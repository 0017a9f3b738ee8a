package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"promocut/internal/clipindex"
	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/selection"
	"promocut/internal/sequence"
	"promocut/internal/services"
	"promocut/internal/stage"
	"promocut/internal/testsupport"
)

const promoSRT = `1
00:00:00,000 --> 00:00:06,000
This bottle keeps every drink cold all day

2
00:00:10,000 --> 00:00:16,000
The lid seals tight so nothing ever leaks

3
00:00:20,000 --> 00:00:26,000
It weighs less than a phone in your bag

4
00:00:30,000 --> 00:00:36,000
Six colours to match the way you live
`

func runSteps(t *testing.T, env *Env, run *stage.Run, from, to int) (Summary, error) {
	t.Helper()
	reg, err := NewStageSet(env).Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	return NewRunner(reg, env.Logger).Run(context.Background(), run, from, to)
}

func TestFullPipelineProducesAdvertisement(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithKeywords("cold", "colours"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InputDir, SubtitlesDir, "promo.srt"), promoSRT)
	testsupport.WriteBytes(t, filepath.Join(cfg.Paths.InputDir, VideosDir, "promo.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InputDir, SloganFile), "Stay cold.\n")

	engine := &fakeEngine{}
	env := newTestEnv(cfg, engine)
	run := NewRun(cfg, stage.Options{Batch: true})

	summary, err := runSteps(t, env, run, FirstStep, LastStep)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Outcomes) != LastStep {
		t.Fatalf("outcomes = %d, want %d", len(summary.Outcomes), LastStep)
	}

	var manifest SubtitleManifest
	if err := fileutil.ReadJSON(run.Output(SubtitlesDir, SubtitleManifestFile), &manifest); err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(manifest.Sources) != 1 || manifest.Sources[0].SourceID != "promo" || manifest.Sources[0].Cues != 4 {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	if !fileutil.Exists(run.Output(AnalysisDir, ModifiedDimensionsFile)) {
		t.Fatal("modified dimensions not written")
	}

	var scored []dimension.ScoredSegment
	if err := fileutil.ReadJSON(run.Output(MatchingDir, ScoredSegmentsFile), &scored); err != nil {
		t.Fatalf("read scored segments: %v", err)
	}
	if len(scored) != 4 {
		t.Fatalf("scored segments = %d, want 4", len(scored))
	}
	for _, seg := range scored {
		if seg.Category != "cold" || seg.Sample {
			t.Fatalf("unexpected scored segment: %+v", seg)
		}
	}

	var selected selection.Result
	if err := fileutil.ReadJSON(run.Output(MatchingDir, SelectedSegmentsFile), &selected); err != nil {
		t.Fatalf("read selection: %v", err)
	}
	if len(selected.Segments) == 0 {
		t.Fatal("nothing selected")
	}

	index, err := clipindex.Open(run.Output(ClipsDir, clipindex.FileName), nil)
	if err != nil {
		t.Fatalf("open clip index: %v", err)
	}
	if index.Len() != len(selected.Segments) {
		t.Fatalf("clip index entries = %d, want %d", index.Len(), len(selected.Segments))
	}
	if got := len(index.ByCategory("cold")); got != len(selected.Segments) {
		t.Fatalf("cold clips = %d, want %d", got, len(selected.Segments))
	}
	if got := engine.extractCount(); got != len(selected.Segments) {
		t.Fatalf("extractions = %d, want %d (assembly should reuse indexed clips)", got, len(selected.Segments))
	}

	var plan sequence.Plan
	if err := fileutil.ReadJSON(run.Output(FinalDir, SequencePlanFile), &plan); err != nil {
		t.Fatalf("read sequence plan: %v", err)
	}
	slate, ok := plan.EndSlate()
	if !ok || slate.Duration != cfg.Sequence.EndSlateSeconds {
		t.Fatalf("end slate = %+v, %v", slate, ok)
	}
	for _, entry := range plan.Main() {
		if entry.ClipPath == "" {
			t.Fatalf("entry not mapped to an extracted clip: %+v", entry)
		}
	}
	if len(engine.slates) != 1 || engine.slates[0].Text != "Stay cold." {
		t.Fatalf("slates = %+v", engine.slates)
	}

	if !fileutil.Exists(run.Output(FinalDir, FinalVideoFile)) {
		t.Fatal("final video not written")
	}
	videos := map[string]VideoInfo{}
	if err := fileutil.ReadJSON(run.Output(FinalDir, VideoIndexFile), &videos); err != nil {
		t.Fatalf("read video index: %v", err)
	}
	info, ok := videos[FinalVideoFile]
	if !ok || info.Width != 1920 || info.ContainsSample {
		t.Fatalf("video index entry = %+v, %v", info, ok)
	}
}

func TestSampleModeCarriesStepsOneToFour(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSampleData())
	env := newTestEnv(cfg, &fakeEngine{})
	run := NewRun(cfg, stage.Options{Batch: true})

	if _, err := runSteps(t, env, run, StepSubtitles, StepMatching); err != nil {
		t.Fatalf("run: %v", err)
	}

	var manifest SubtitleManifest
	if err := fileutil.ReadJSON(run.Output(SubtitlesDir, SubtitleManifestFile), &manifest); err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(manifest.Sources) != 1 || !manifest.Sources[0].Sample {
		t.Fatalf("manifest should carry only the sample source: %+v", manifest)
	}
	srt := testsupport.ReadFile(t, run.Output(SubtitlesDir, SampleSourceID+".srt"))
	if !strings.Contains(srt, "[sample]") {
		t.Fatalf("sample subtitles are not labelled:\n%s", srt)
	}

	tree, err := dimension.LoadFile(run.Output(AnalysisDir, InitialDimensionsFile))
	if err != nil {
		t.Fatalf("load dimensions: %v", err)
	}
	if tree.Len() != sampleTree().Len() {
		t.Fatalf("dimension roots = %d, want sample tree", tree.Len())
	}

	var scored []dimension.ScoredSegment
	if err := fileutil.ReadJSON(run.Output(MatchingDir, ScoredSegmentsFile), &scored); err != nil {
		t.Fatalf("read scored segments: %v", err)
	}
	if len(scored) == 0 {
		t.Fatal("no sample segments scored")
	}
	for _, seg := range scored {
		if !seg.Sample || seg.SourceID != SampleSourceID {
			t.Fatalf("segment not marked as sample: %+v", seg)
		}
	}
}

func TestMissingInputFailsWithoutSampleData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := newTestEnv(cfg, &fakeEngine{})

	_, err := runSteps(t, env, NewRun(cfg, stage.Options{Batch: true}), StepSubtitles, StepSubtitles)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("step 1 err = %v, want missing input", err)
	}

	_, err = runSteps(t, env, NewRun(cfg, stage.Options{Batch: true}), StepDimensions, StepDimensions)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("step 2 err = %v, want missing input", err)
	}

	_, err = runSteps(t, env, NewRun(cfg, stage.Options{Batch: true}), StepClips, StepClips)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("step 5 err = %v, want missing input", err)
	}
}

func TestSubtitleStageMarksSourcesWithoutSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteBytes(t, filepath.Join(cfg.Paths.InputDir, VideosDir, "alpha.mp4"), 8)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InputDir, VideosDir, "alpha.srt"), promoSRT)
	testsupport.WriteBytes(t, filepath.Join(cfg.Paths.InputDir, VideosDir, "beta.mov"), 8)
	env := newTestEnv(cfg, &fakeEngine{})
	run := NewRun(cfg, stage.Options{Batch: true})

	if _, err := runSteps(t, env, run, StepSubtitles, StepSubtitles); err != nil {
		t.Fatalf("run: %v", err)
	}
	var manifest SubtitleManifest
	if err := fileutil.ReadJSON(run.Output(SubtitlesDir, SubtitleManifestFile), &manifest); err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(manifest.Sources) != 2 {
		t.Fatalf("sources = %+v", manifest.Sources)
	}
	alpha, beta := manifest.Sources[0], manifest.Sources[1]
	if alpha.SourceID != "alpha" || alpha.Missing || alpha.Cues != 4 {
		t.Fatalf("alpha = %+v", alpha)
	}
	if beta.SourceID != "beta" || !beta.Missing {
		t.Fatalf("beta = %+v", beta)
	}
	if !fileutil.Exists(run.Output(SubtitlesDir, "alpha.srt")) {
		t.Fatal("alpha subtitles not copied to output")
	}
	if fileutil.Exists(run.Output(SubtitlesDir, "beta.srt")) {
		t.Fatal("beta subtitles should not exist")
	}
}

func TestDimensionStageRejectsMalformedTaxonomy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithKeywords("cold"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InputDir, AnalysisDir, "key_dimensions.json"), "{")
	env := newTestEnv(cfg, &fakeEngine{})

	_, err := runSteps(t, env, NewRun(cfg, stage.Options{Batch: true}), StepDimensions, StepDimensions)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestReviewKeepsEditsWhenOverwriteDeclined(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithKeywords("cold", "light"))
	env := newTestEnv(cfg, &fakeEngine{})
	run := NewRun(cfg, stage.Options{})
	if _, err := runSteps(t, env, run, StepDimensions, StepReview); err != nil {
		t.Fatalf("first run: %v", err)
	}

	modified := run.Output(AnalysisDir, ModifiedDimensionsFile)
	if err := fileutil.WriteJSON(modified, dimension.FromKeywords([]string{"edited"})); err != nil {
		t.Fatalf("write edit: %v", err)
	}

	var asked []string
	run.Confirm = func(path string) bool {
		asked = append(asked, path)
		return false
	}
	summary, err := runSteps(t, env, run, StepReview, StepReview)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !summary.Outcomes[0].Skipped {
		t.Fatalf("review not skipped: %+v", summary.Outcomes[0])
	}
	if len(asked) != 1 || asked[0] != modified {
		t.Fatalf("prompted for %v", asked)
	}
	tree, err := dimension.LoadFile(modified)
	if err != nil {
		t.Fatalf("load modified: %v", err)
	}
	if order := tree.CategoryOrder(); len(order) != 1 || order[0] != "edited" {
		t.Fatalf("edits lost: %v", order)
	}
}
