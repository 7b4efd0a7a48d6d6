package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"regift/internal/history"
	"regift/internal/preflight"
)

type statusReport struct {
	Checks  []preflight.Result     `json:"checks"`
	History map[history.Status]int `json:"history,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check binaries, directories, and conversion history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report := statusReport{Checks: preflight.RunAll(baseContext(cmd), cfg)}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				counts, err := store.Counts(baseContext(cmd))
				if err != nil {
					return fmt.Errorf("history counts: %w", err)
				}
				report.History = counts
			}

			failed := preflight.Failed(report.Checks)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				renderStatusReport(cmd, report)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d status check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func renderStatusReport(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		state := stateOK
		if !check.Passed {
			state = stateFailed
		}
		rows = append(rows, []string{check.Name, state.render(colorize), check.Detail})
	}
	fmt.Fprintln(out, renderTable([]column{{title: "Check"}, {title: "Result"}, {title: "Detail"}}, rows))

	if report.History == nil {
		return
	}
	rows = rows[:0]
	for _, status := range []history.Status{history.StatusRunning, history.StatusSucceeded, history.StatusFailed} {
		rows = append(rows, []string{statusLabel(status), strconv.Itoa(report.History[status])})
	}
	fmt.Fprintln(out, renderTable([]column{{title: "History"}, {title: "Conversions", right: true}}, rows))
}
