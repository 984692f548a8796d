package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"filesorter/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sort runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded.")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format(time.DateTime),
						run.Origin,
						run.Root,
						strconv.Itoa(run.Moved),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
						runDuration(run),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Origin", "Root", "Moved", "Skipped", "Failed", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every file outcome of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				detail, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					if detail.Entries == nil {
						detail.Entries = []history.Entry{}
					}
					return writeJSON(cmd, detail)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				run := detail.Run
				writeLines(out, renderSectionHeader("Run "+run.ID, colorize)...)
				writeLines(out,
					renderStatusLine("Root", statusInfo, run.Root, colorize),
					renderStatusLine("Origin", statusInfo, run.Origin, colorize),
					renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize),
					renderStatusLine("Result", tallyKind(run.Moved, run.Failed, run.Cancelled),
						tallyMessage(run.Moved, run.Skipped, run.Failed, runDuration(run), run.Cancelled), colorize),
				)
				if len(detail.Entries) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(detail.Entries))
				for _, e := range detail.Entries {
					rows = append(rows, []string{relativeTo(run.Root, e.Source), e.Status, entryDetail(run.Root, e)})
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Result", "Detail"}, rows, nil))
				return nil
			})
		},
	}
}

func runDuration(run history.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return formatDuration(run.FinishedAt.Sub(run.StartedAt))
}

func entryDetail(root string, e history.Entry) string {
	switch {
	case e.Destination != "":
		detail := "-> " + relativeTo(root, e.Destination)
		if e.Warning != "" {
			detail += " (warning: " + e.Warning + ")"
		}
		return detail
	case e.Error != "":
		return e.Kind + ": " + e.Error
	default:
		return e.Reason
	}
}
