package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"promocut/internal/logging"
	"promocut/internal/sequence"
	"promocut/internal/services"
)

// ExtractJob is one clip to cut from a source video.
type ExtractJob struct {
	SourceID string
	Video    string
	Start    float64
	End      float64
	Output   string
}

// VideoResolver maps a source id to a video path.
type VideoResolver func(sourceID string) (string, error)

// AssembleRequest describes one final render.
type AssembleRequest struct {
	Plan         sequence.Plan
	ResolveVideo VideoResolver
	TempDir      string
	Output       string
	Slogan       string
	Style        Style
}

// Result describes the rendered video.
type Result struct {
	Path     string   `json:"path"`
	Metadata Metadata `json:"metadata"`
	Entries  int      `json:"entries"`
}

// Assembler drives an Engine with bounded parallelism.
type Assembler struct {
	engine  Engine
	workers int
	logger  *slog.Logger
}

// NewAssembler returns an Assembler running at most workers engine calls at once.
func NewAssembler(engine Engine, workers int, logger *slog.Logger) *Assembler {
	if workers <= 0 {
		workers = 1
	}
	return &Assembler{engine: engine, workers: workers, logger: logging.NewComponentLogger(logger, "assembler")}
}

// Engine returns the underlying media engine.
func (a *Assembler) Engine() Engine { return a.engine }

// ExtractAll cuts every job concurrently. Results follow job order. The first
// failure cancels outstanding work and is returned with its source id.
func (a *Assembler) ExtractAll(ctx context.Context, jobs []ExtractJob) ([]Clip, error) {
	clips := make([]Clip, len(jobs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)
	for i, job := range jobs {
		group.Go(func() error {
			clip, err := a.engine.ExtractClip(gctx, job.Video, job.Start, job.End, job.Output)
			if err != nil {
				return services.WithSourceID(err, job.SourceID)
			}
			clips[i] = clip
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, canceledOr(ctx, err)
	}
	return clips, nil
}

// Assemble renders the plan: each main entry is cut (unless it already has a
// clip) and faded by position, the entries are joined in order, and the end
// slate, when planned, is rendered and appended.
func (a *Assembler) Assemble(ctx context.Context, req AssembleRequest) (Result, error) {
	main := req.Plan.Main()
	if len(main) == 0 {
		return Result{}, services.Wrap(services.ErrMissingInput, "assembly", "assemble", "Sequence plan has no entries", nil)
	}

	faded := make([]Clip, len(main))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)
	for i, entry := range main {
		group.Go(func() error {
			clip, err := a.prepareEntry(gctx, req, i, entry)
			if err != nil {
				return services.WithSourceID(err, entry.SourceID)
			}
			faded[i] = clip
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, canceledOr(ctx, err)
	}

	slate, hasSlate := req.Plan.EndSlate()
	mainOut := req.Output
	if hasSlate {
		mainOut = filepath.Join(req.TempDir, "main_sequence.mp4")
	}
	mainClip, err := a.engine.Concat(ctx, faded, mainOut)
	if err != nil {
		return Result{}, err
	}
	a.logger.Info("main sequence assembled",
		logging.Int("entries", len(main)),
		logging.Float64("duration", mainClip.Duration),
	)

	if hasSlate {
		slateClip, err := a.engine.RenderEndSlate(ctx, EndSlate{
			Text:     req.Slogan,
			Duration: slate.Duration,
			Fade:     slate.TransitionIn,
			Style:    req.Style,
		}, filepath.Join(req.TempDir, "end_slate.mp4"))
		if err != nil {
			return Result{}, err
		}
		if _, err := a.engine.Concat(ctx, []Clip{mainClip, slateClip}, req.Output); err != nil {
			return Result{}, err
		}
	}

	meta, err := a.engine.Metadata(ctx, req.Output)
	if err != nil {
		return Result{}, err
	}
	return Result{Path: req.Output, Metadata: meta, Entries: len(main)}, nil
}

func (a *Assembler) prepareEntry(ctx context.Context, req AssembleRequest, index int, entry sequence.Entry) (Clip, error) {
	clip := Clip{Path: entry.ClipPath, Duration: entry.Duration}
	if clip.Path == "" {
		if req.ResolveVideo == nil {
			return Clip{}, services.Wrap(services.ErrConfiguration, "assembly", "resolve video", "No video resolver configured", nil)
		}
		video, err := req.ResolveVideo(entry.SourceID)
		if err != nil {
			return Clip{}, err
		}
		out := filepath.Join(req.TempDir, fmt.Sprintf("segment_%03d.mp4", index))
		if clip, err = a.engine.ExtractClip(ctx, video, entry.Start, entry.End, out); err != nil {
			return Clip{}, err
		}
	}
	if entry.TransitionIn <= 0 && entry.TransitionOut <= 0 {
		return clip, nil
	}
	out := filepath.Join(req.TempDir, fmt.Sprintf("faded_%03d.mp4", index))
	return a.engine.AddFade(ctx, clip, entry.TransitionIn, entry.TransitionOut, out)
}

func canceledOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return services.Wrap(services.ErrCanceled, "assembly", "wait", "Run canceled", ctx.Err())
	}
	return err
}
