package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"promocut/internal/config"
	"promocut/internal/workflow"
)

func newRemixCommand(ctx *commandContext) *cobra.Command {
	var (
		reference     string
		candidates    string
		brandKeywords []string
		minDiversity  int
		slogan        string
	)

	cmd := &cobra.Command{
		Use:   "remix",
		Short: "Rebuild a reference cut from several candidate videos",
		Long: `Remix follows the stages of a reference subtitle file and fills each stage
with the best matching window from the candidate videos, using at least
--min-diversity distinct sources where the candidates allow it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(reference) == "" || strings.TrimSpace(candidates) == "" {
				return errors.New("--reference and --candidates are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			refPath, err := config.ExpandPath(reference)
			if err != nil {
				return fmt.Errorf("resolve reference: %w", err)
			}
			candDir, err := config.ExpandPath(candidates)
			if err != nil {
				return fmt.Errorf("resolve candidates: %w", err)
			}

			env, err := workflow.NewEnv(cfg, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			if strings.TrimSpace(slogan) == "" {
				slogan = cfg.Sequence.Slogan
			}
			result, err := workflow.Remix(cmd.Context(), env, workflow.RemixRequest{
				ReferenceSubtitles: refPath,
				CandidatesDir:      candDir,
				OutputDir:          cfg.Paths.OutputDir,
				BrandKeywords:      brandKeywords,
				MinDiversity:       minDiversity,
				Slogan:             slogan,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSequence("Remix sequence", result.Sequence))
			fmt.Fprintf(out, "Distinct sources: %d of %d required (met: %s)\n",
				result.Plan.DistinctSources, result.Plan.Required, yesNo(result.Plan.RequirementMet))
			fmt.Fprintf(out, "Wrote %s\n", result.Video.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "Reference subtitle file (SRT) whose stages drive the cut")
	cmd.Flags().StringVar(&candidates, "candidates", "", "Directory of candidate videos with subtitles")
	cmd.Flags().StringSliceVar(&brandKeywords, "brand", nil, "Brand keywords that protect a stage (repeatable)")
	cmd.Flags().IntVar(&minDiversity, "min-diversity", 0, "Minimum distinct sources (default diversity.min_diversity_requirement)")
	cmd.Flags().StringVar(&slogan, "slogan", "", "End slate text")
	return cmd
}
