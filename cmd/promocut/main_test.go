package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/segment"
	"promocut/internal/selection"
	"promocut/internal/sequence"
	"promocut/internal/services"
	"promocut/internal/testsupport"
	"promocut/internal/workflow"
)

func TestRunRejectsInvalidSteps(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, "run", "--config", env.configPath, "--steps", "4-9")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestRunSampleDataThroughMatching(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, "run", "--config", env.configPath, "--steps", "1-4", "--batch", "--sample-data")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContainsFold(t, out, "steps 1-4")
	requireContains(t, out, "Matching")
	if !fileutil.Exists(filepath.Join(env.cfg.Paths.OutputDir, workflow.MatchingDir, workflow.ScoredSegmentsFile)) {
		t.Fatal("scored segments not written")
	}
}

func TestRunFailsWithoutInput(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, "run", "--config", env.configPath, "--batch")
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("err = %v, want missing input", err)
	}
	requireContains(t, out, "failed (missing_input)")
}

func TestOutputDirOverride(t *testing.T) {
	env := setupCLITestEnv(t)
	override := filepath.Join(env.baseDir, "elsewhere")
	if _, _, err := runCLI(t, "run", "--config", env.configPath, "--output-dir", override,
		"--steps", "1-2", "--batch", "--sample-data"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !fileutil.Exists(filepath.Join(override, workflow.AnalysisDir, workflow.InitialDimensionsFile)) {
		t.Fatal("override output dir not used")
	}
	if fileutil.Exists(filepath.Join(env.cfg.Paths.OutputDir, workflow.AnalysisDir, workflow.InitialDimensionsFile)) {
		t.Fatal("configured output dir written despite override")
	}
}

func TestShowRendersArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)
	outDir := env.cfg.Paths.OutputDir
	selected := selection.Result{
		Segments: []dimension.ScoredSegment{{
			Segment:  segment.Segment{SourceID: "promo", Start: 1, End: 7, Text: "cold all day"},
			Combined: 0.42,
			Category: "Battery",
		}},
		TotalDuration:  6,
		TargetDuration: 30,
		Tolerance:      5,
		Shortfall:      true,
	}
	if err := fileutil.WriteJSON(filepath.Join(outDir, workflow.MatchingDir, workflow.SelectedSegmentsFile), selected); err != nil {
		t.Fatalf("write selection: %v", err)
	}
	plan := sequence.Plan{
		Entries: []sequence.Entry{
			{SourceID: "promo", Start: 1, End: 7, Duration: 6, Category: "Battery", Role: sequence.RoleMain, TransitionIn: 0.5},
			{Start: 0, End: 5, Duration: 5, Role: sequence.RoleEndSlate},
		},
		TotalDuration: 11,
		MinDuration:   27,
		MaxDuration:   40,
	}
	if err := fileutil.WriteJSON(filepath.Join(outDir, workflow.FinalDir, workflow.SequencePlanFile), plan); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	out, _, err := runCLI(t, "show", "--config", env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContainsFold(t, out, "Selected segments")
	requireContainsFold(t, out, "outside window")
	requireContains(t, out, "Battery")
	requireContains(t, out, "end slate")
	if strings.Contains(strings.ToLower(out), "final videos") {
		t.Fatalf("video index shown although absent:\n%s", out)
	}

	if _, _, err := runCLI(t, "show", "videos", "--config", env.configPath); err == nil {
		t.Fatal("expected an error for a missing video index")
	}
	if _, _, err := runCLI(t, "show", "bogus", "--config", env.configPath); err == nil {
		t.Fatal("expected an error for an unknown artifact")
	}
}

func TestDoctorWithStubbedBinaries(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, "doctor", "--config", env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContainsFold(t, out, "External binaries")
	requireContains(t, out, "assembly")
	requireContains(t, out, "All checks passed")
}

func TestDoctorReportsMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Media.FFmpegBinary = filepath.Join(env.baseDir, "no-such-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err := runCLI(t, "doctor", "--config", env.configPath)
	if err == nil {
		t.Fatalf("doctor passed with a missing binary:\n%s", out)
	}
	requireContains(t, out, "missing")
}

func TestRemixRequiresFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, "remix", "--config", env.configPath, "--reference", "ref.srt")
	if err == nil || !strings.Contains(err.Error(), "--candidates") {
		t.Fatalf("err = %v, want missing flag error", err)
	}
}
