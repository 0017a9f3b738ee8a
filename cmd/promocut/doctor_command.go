package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"promocut/internal/deps"
	"promocut/internal/stage"
	"promocut/internal/workflow"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external binaries and stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			report := deps.Inspect(deps.MediaBinaries(cfg))
			fmt.Fprintln(out, renderDependencies(report))
			healthy := report.Ready()

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			env, err := workflow.NewEnv(cfg, logger)
			if err != nil {
				fmt.Fprintf(out, "Environment: %v\n", err)
				return errors.New("doctor found problems")
			}
			defer env.Close()
			registry, err := workflow.NewStageSet(env).Registry()
			if err != nil {
				return err
			}
			records := registry.Health(cmd.Context())
			printHealth(out, registry.Numbers(), records)

			if !healthy || !stage.AllReady(records) {
				return errors.New("doctor found problems")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func renderDependencies(report deps.Report) string {
	rows := make([][]string, 0, len(report))
	for _, c := range report {
		state, detail := "available", c.Path
		if !c.OK() {
			state, detail = "missing", c.Err.Error()
		}
		rows = append(rows, []string{c.Name, c.Purpose, state, detail})
	}
	return renderTable("External binaries", []string{"Binary", "Used for", "Status", "Detail"}, rows, nil)
}

func printHealth(out io.Writer, numbers []int, records []stage.Health) {
	rows := make([][]string, 0, len(records))
	for i, h := range records {
		step := ""
		if i < len(numbers) {
			step = fmt.Sprintf("%d", numbers[i])
		}
		rows = append(rows, []string{step, h.Name, yesNo(h.Ready), h.Detail})
	}
	fmt.Fprintln(out, renderTable("Stages", []string{"Step", "Stage", "Ready", "Detail"}, rows,
		[]columnAlignment{alignRight}))
}
