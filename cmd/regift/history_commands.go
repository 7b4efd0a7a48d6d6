package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"regift/internal/api"
	"regift/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(baseContext(cmd), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromHistoryEntries(entries))
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No conversions recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one conversion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(baseContext(cmd), strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("load conversion: %w", err)
			}
			if entry == nil {
				return errors.New("conversion not found")
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromHistoryEntry(*entry))
			}
			renderHistoryDetail(cmd, *entry)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the entry as JSON")
	return cmd
}

func renderHistoryTable(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortID(e.ID),
			e.StartedAt.Local().Format(time.DateTime),
			statusLabel(e.Status),
			e.Mode,
			fmt.Sprintf("%d/%d", e.FramesAppended, e.FrameCount),
			formatElapsed(e),
			historyTarget(e),
		})
	}
	return renderTable([]column{
		{title: "ID"},
		{title: "Started"},
		{title: "Status"},
		{title: "Mode"},
		{title: "Frames", right: true},
		{title: "Elapsed", right: true},
		{title: "Output"},
	}, rows)
}

func renderHistoryDetail(cmd *cobra.Command, e history.Entry) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"ID", e.ID},
		{"Status", statusLabel(e.Status)},
		{"Source", e.SourcePath},
		{"Destination", e.Destination},
		{"Mode", e.Mode},
		{"Frames", fmt.Sprintf("%d appended of %d", e.FramesAppended, e.FrameCount)},
		{"Delay", strconv.FormatFloat(e.DelaySeconds, 'f', -1, 64) + "s"},
		{"Loop count", strconv.Itoa(e.LoopCount)},
		{"Started", e.StartedAt.Local().Format(time.DateTime)},
		{"Elapsed", formatElapsed(e)},
	}
	if e.ErrorKind != "" {
		rows = append(rows, []string{"Error kind", e.ErrorKind}, []string{"Error", e.ErrorMessage})
	}
	fmt.Fprintln(out, renderTable([]column{{title: "Field"}, {title: "Value"}}, rows))
}

// statusLabel renders a status for humans, e.g. "Succeeded".
func statusLabel(status history.Status) string {
	return cases.Title(language.Und).String(string(status))
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatElapsed(e history.Entry) string {
	if e.FinishedAt == nil {
		return "-"
	}
	return e.Elapsed().Round(time.Millisecond).String()
}

func historyTarget(e history.Entry) string {
	if e.Status == history.StatusFailed && e.ErrorKind != "" {
		return e.ErrorKind
	}
	return e.Destination
}
