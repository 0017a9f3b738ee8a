package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"promocut/internal/logging"
	"promocut/internal/sequence"
	"promocut/internal/services"
)

type fakeEngine struct {
	mu        sync.Mutex
	extracted []string
	fades     map[string][2]float64
	concats   [][]string
	slates    []EndSlate
	failOn    string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{fades: make(map[string][2]float64)}
}

func (f *fakeEngine) ExtractClip(_ context.Context, source string, start, end float64, output string) (Clip, error) {
	// Later entries finish first to exercise ordering.
	time.Sleep(time.Duration(10-int(start)%10) * time.Millisecond)
	if source == f.failOn {
		return Clip{}, services.Wrap(services.ErrExternalService, "media", "extract clip", "boom", nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, output)
	return Clip{Path: output, Duration: end - start}, nil
}

func (f *fakeEngine) AddFade(_ context.Context, clip Clip, in, out float64, output string) (Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fades[filepath.Base(output)] = [2]float64{in, out}
	return Clip{Path: output, Duration: clip.Duration}, nil
}

func (f *fakeEngine) Concat(_ context.Context, clips []Clip, output string) (Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	total := 0.0
	for _, c := range clips {
		names = append(names, filepath.Base(c.Path))
		total += c.Duration
	}
	f.concats = append(f.concats, names)
	return Clip{Path: output, Duration: total}, nil
}

func (f *fakeEngine) Metadata(_ context.Context, path string) (Metadata, error) {
	return Metadata{Duration: 30, Width: 1920, Height: 1080, FPS: 30}, nil
}

func (f *fakeEngine) RenderEndSlate(_ context.Context, slate EndSlate, output string) (Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slates = append(f.slates, slate)
	return Clip{Path: output, Duration: slate.Duration}, nil
}

func testPlan() sequence.Plan {
	return sequence.Plan{Entries: []sequence.Entry{
		{SourceID: "a", Start: 1, End: 6, Duration: 5, Role: sequence.RoleMain, TransitionIn: 0.5},
		{SourceID: "b", Start: 2, End: 9, Duration: 7, Role: sequence.RoleMain, TransitionIn: 0.5, TransitionOut: 0.5},
		{SourceID: "a", Start: 3, End: 6, Duration: 3, Role: sequence.RoleMain, TransitionOut: 0.5, ClipPath: "/clips/existing.mp4"},
		{Duration: 5, End: 5, Role: sequence.RoleEndSlate, TransitionIn: 0.5, TransitionOut: 0.5},
	}}
}

func resolver(id string) (string, error) { return "/videos/" + id + ".mp4", nil }

func TestAssembleKeepsPlanOrder(t *testing.T) {
	engine := newFakeEngine()
	asm := NewAssembler(engine, 3, logging.NewNop())
	tmp := t.TempDir()
	res, err := asm.Assemble(context.Background(), AssembleRequest{
		Plan:         testPlan(),
		ResolveVideo: resolver,
		TempDir:      tmp,
		Output:       filepath.Join(tmp, "final.mp4"),
		Slogan:       "Made for every day",
		Style:        StyleFor("warm"),
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(engine.extracted) != 2 {
		t.Fatalf("entry with an existing clip should not be re-extracted: %v", engine.extracted)
	}
	if len(engine.concats) != 2 {
		t.Fatalf("expected main and final concats, got %v", engine.concats)
	}
	wantMain := []string{"faded_000.mp4", "faded_001.mp4", "faded_002.mp4"}
	if fmt.Sprint(engine.concats[0]) != fmt.Sprint(wantMain) {
		t.Fatalf("main concat order = %v, want %v", engine.concats[0], wantMain)
	}
	if fmt.Sprint(engine.concats[1]) != fmt.Sprint([]string{"main_sequence.mp4", "end_slate.mp4"}) {
		t.Fatalf("final concat = %v", engine.concats[1])
	}
	if got := engine.fades["faded_001.mp4"]; got != [2]float64{0.5, 0.5} {
		t.Fatalf("interior fades = %v", got)
	}
	if len(engine.slates) != 1 || engine.slates[0].Text != "Made for every day" || engine.slates[0].Style.Name != "warm" {
		t.Fatalf("unexpected end slate: %+v", engine.slates)
	}
	if res.Entries != 3 || res.Metadata.Width != 1920 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAssembleWithoutEndSlateWritesOutputDirectly(t *testing.T) {
	engine := newFakeEngine()
	plan := testPlan()
	plan.Entries = plan.Entries[:2]
	plan.Entries[1].TransitionIn, plan.Entries[1].TransitionOut = 0, 0
	tmp := t.TempDir()
	out := filepath.Join(tmp, "remix.mp4")
	if _, err := NewAssembler(engine, 2, logging.NewNop()).Assemble(context.Background(), AssembleRequest{
		Plan: plan, ResolveVideo: resolver, TempDir: tmp, Output: out,
	}); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(engine.concats) != 1 || fmt.Sprint(engine.concats[0]) != fmt.Sprint([]string{"faded_000.mp4", "segment_001.mp4"}) {
		t.Fatalf("unexpected concats: %v", engine.concats)
	}
	if len(engine.slates) != 0 {
		t.Fatal("no end slate expected")
	}
}

func TestAssembleReportsFailingSource(t *testing.T) {
	engine := newFakeEngine()
	engine.failOn = "/videos/b.mp4"
	tmp := t.TempDir()
	_, err := NewAssembler(engine, 2, logging.NewNop()).Assemble(context.Background(), AssembleRequest{
		Plan: testPlan(), ResolveVideo: resolver, TempDir: tmp, Output: filepath.Join(tmp, "final.mp4"),
	})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if id, ok := services.SourceIDOf(err); !ok || id != "b" {
		t.Fatalf("expected source b, got %q", id)
	}
}

func TestAssembleEmptyPlan(t *testing.T) {
	_, err := NewAssembler(newFakeEngine(), 1, logging.NewNop()).Assemble(context.Background(), AssembleRequest{})
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestExtractAllPreservesJobOrder(t *testing.T) {
	engine := newFakeEngine()
	var jobs []ExtractJob
	for i := 0; i < 6; i++ {
		jobs = append(jobs, ExtractJob{SourceID: "s", Video: "v.mp4", Start: float64(i), End: float64(i + 3), Output: fmt.Sprintf("clip_%d.mp4", i)})
	}
	clips, err := NewAssembler(engine, 4, logging.NewNop()).ExtractAll(context.Background(), jobs)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	for i, clip := range clips {
		if clip.Path != fmt.Sprintf("clip_%d.mp4", i) || clip.Duration != 3 {
			t.Fatalf("clip %d = %+v", i, clip)
		}
	}
}

func TestExtractAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := newFakeEngine()
	engine.failOn = "v.mp4"
	_, err := NewAssembler(engine, 1, logging.NewNop()).ExtractAll(ctx, []ExtractJob{{Video: "v.mp4", Start: 0, End: 3}})
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}
