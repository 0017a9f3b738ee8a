package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"promocut/internal/services"
	"promocut/internal/stage"
	"promocut/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		steps        string
		useHotWords  bool
		vocabularyID string
		batch        bool
		sampleData   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run pipeline steps 1-6 (subtitles through final assembly)",
		Long: `Run the promo pipeline over the input directory.

Steps: 1 subtitles, 2 dimensions, 3 review, 4 matching, 5 clips, 6 assembly.
The first failing step aborts the rest and the command exits with status 1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := workflow.ParseSteps(steps)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			env, err := workflow.NewEnv(cfg, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			registry, err := workflow.NewStageSet(env).Registry()
			if err != nil {
				return err
			}
			run := workflow.NewRun(cfg, stage.Options{
				UseHotWords:  useHotWords,
				VocabularyID: vocabularyID,
				Batch:        batch,
				SampleData:   sampleData,
			})
			if !batch && isInteractive(cmd.InOrStdin(), cmd.OutOrStdout()) {
				run.Confirm = newOverwritePrompt(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm
			}

			summary, runErr := workflow.NewRunner(registry, logger).Run(cmd.Context(), run, from, to)
			printSummary(cmd.OutOrStdout(), summary)
			return runErr
		},
	}

	cmd.Flags().StringVar(&steps, "steps", "1-6", "Step range to run (N-M or N, within 1-6)")
	cmd.Flags().BoolVar(&useHotWords, "use-hot-words", false, "Ask the transcriber to apply hot words")
	cmd.Flags().StringVar(&vocabularyID, "vocabulary-id", "", "Hot-word vocabulary id forwarded to the transcriber")
	cmd.Flags().BoolVar(&batch, "batch", false, "Never prompt; overwrite existing outputs")
	cmd.Flags().BoolVar(&sampleData, "sample-data", false, "Substitute labelled sample data for missing inputs")
	return cmd
}

func printSummary(out io.Writer, summary workflow.Summary) {
	if len(summary.Outcomes) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		result := "ok"
		switch {
		case o.Err != nil:
			result = "failed (" + services.Kind(o.Err) + ")"
		case o.Skipped:
			result = "skipped"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", o.Number), o.Label, result, formatElapsed(o.Elapsed)})
	}
	title := fmt.Sprintf("Run %s (steps %d-%d)", summary.RunID, summary.From, summary.To)
	fmt.Fprintln(out, renderTable(title, []string{"Step", "Stage", "Result", "Elapsed"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
}
