package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"promocut/internal/dimension"
	"promocut/internal/fileutil"
	"promocut/internal/selection"
	"promocut/internal/sequence"
	"promocut/internal/workflow"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [selection|plan|videos]",
		Short: "Display pipeline artifacts from the output directory",
		Long: `Show renders the selected segments, the final sequence plan and the video
index. With no argument every available artifact is shown.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"selection", "plan", "videos"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			which := ""
			if len(args) == 1 {
				which = strings.ToLower(strings.TrimSpace(args[0]))
			}
			return showArtifacts(cmd.OutOrStdout(), cfg.Paths.OutputDir, which)
		},
	}
}

func showArtifacts(out io.Writer, outputDir, which string) error {
	views := []struct {
		name   string
		path   string
		render func(string) (string, error)
	}{
		{"selection", filepath.Join(outputDir, workflow.MatchingDir, workflow.SelectedSegmentsFile), loadSelectionView},
		{"plan", filepath.Join(outputDir, workflow.FinalDir, workflow.SequencePlanFile), loadPlanView},
		{"videos", filepath.Join(outputDir, workflow.FinalDir, workflow.VideoIndexFile), loadVideosView},
	}
	shown := 0
	for _, view := range views {
		if which != "" && which != view.name {
			continue
		}
		rendered, err := view.render(view.path)
		if errors.Is(err, fs.ErrNotExist) {
			if which != "" {
				return fmt.Errorf("%s not found; run the pipeline first", view.path)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", view.path, err)
		}
		fmt.Fprintln(out, rendered)
		shown++
	}
	if which != "" && shown == 0 {
		return fmt.Errorf("unknown artifact %q (want selection, plan or videos)", which)
	}
	if shown == 0 {
		fmt.Fprintf(out, "No artifacts under %s\n", outputDir)
	}
	return nil
}

func loadSelectionView(path string) (string, error) {
	var result selection.Result
	if err := fileutil.ReadJSON(path, &result); err != nil {
		return "", err
	}
	return renderSelection(result), nil
}

func renderSelection(result selection.Result) string {
	rows := make([][]string, 0, len(result.Segments)+1)
	for i, seg := range result.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			seg.Category,
			sourceLabel(seg),
			formatSeconds(seg.Start),
			formatSeconds(seg.End),
			formatSeconds(seg.Duration()),
			fmt.Sprintf("%.3f", seg.Combined),
		})
	}
	rows = append(rows, []string{"", "", "total", "", "", formatSeconds(result.TotalDuration), ""})
	title := fmt.Sprintf("Selected segments (target %.0fs ± %.0fs", result.TargetDuration, result.Tolerance)
	if result.Shortfall {
		title += ", outside window"
	}
	title += ")"
	return renderTable(title,
		[]string{"#", "Category", "Source", "Start", "End", "Duration", "Score"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight})
}

func sourceLabel(seg dimension.ScoredSegment) string {
	if seg.Sample {
		return seg.SourceID + " (sample)"
	}
	return seg.SourceID
}

func loadPlanView(path string) (string, error) {
	var plan sequence.Plan
	if err := fileutil.ReadJSON(path, &plan); err != nil {
		return "", err
	}
	return renderSequence("Sequence plan", plan), nil
}

func renderSequence(title string, plan sequence.Plan) string {
	rows := make([][]string, 0, len(plan.Entries))
	for i, e := range plan.Entries {
		label := e.Category
		if e.Role == sequence.RoleEndSlate {
			label = "end slate"
		} else if e.StageID > 0 {
			label = "stage " + strconv.Itoa(e.StageID)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			label,
			e.SourceID,
			formatSeconds(e.Start),
			formatSeconds(e.End),
			formatSeconds(e.TransitionIn),
			formatSeconds(e.TransitionOut),
		})
	}
	title = fmt.Sprintf("%s (%.2fs of %.0f-%.0fs, within bounds: %s)",
		title, plan.TotalDuration, plan.MinDuration, plan.MaxDuration, yesNo(plan.WithinBounds))
	return renderTable(title,
		[]string{"#", "Entry", "Source", "Start", "End", "Fade in", "Fade out"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight})
}

func loadVideosView(path string) (string, error) {
	videos := map[string]workflow.VideoInfo{}
	if err := fileutil.ReadJSON(path, &videos); err != nil {
		return "", err
	}
	names := make([]string, 0, len(videos))
	for name := range videos {
		names = append(names, name)
	}
	slices.Sort(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		v := videos[name]
		rows = append(rows, []string{
			name,
			formatSeconds(v.Duration),
			fmt.Sprintf("%dx%d", v.Width, v.Height),
			fmt.Sprintf("%.2f", v.FPS),
			yesNo(v.ContainsSample),
		})
	}
	return renderTable("Final videos", []string{"File", "Duration", "Size", "FPS", "Sample"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft}), nil
}
