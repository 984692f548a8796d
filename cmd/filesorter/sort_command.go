package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"filesorter/internal/config"
	"filesorter/internal/organizer"
	"filesorter/internal/workflow"
)

func newSortCommand(ctx *commandContext) *cobra.Command {
	var path string
	var recursive bool

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Sort the files of a directory once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *workflow.Manager) error {
				if cmd.Flags().Changed("recursive") {
					cfg.Organize.Recursive = recursive
				}
				report, err := mgr.RunOnce(cmd.Context(), path)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, newReportView(report))
				}
				out := cmd.OutOrStdout()
				printReport(out, report, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory to sort")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also sort files in subdirectories")
	return cmd
}

func printReport(out io.Writer, report *organizer.RunReport, colorize bool) {
	if len(report.Outcomes) > 0 {
		rows := make([][]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			rows = append(rows, []string{relativeTo(report.Root, o.Source), string(o.Status), outcomeDetail(report.Root, o)})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Result", "Detail"}, rows, nil))
	}

	kind := tallyKind(report.Moved, report.Failed, report.Cancelled)
	summary := tallyMessage(report.Moved, report.Skipped, report.Failed, formatDuration(report.Duration()), report.Cancelled)
	writeLines(out, renderStatusLine("Sorted", kind, summary, colorize))
}

func outcomeDetail(root string, o organizer.Outcome) string {
	switch o.Status {
	case organizer.StatusMoved:
		detail := "-> " + relativeTo(root, o.Destination)
		if o.Warning != "" {
			detail += " (warning: " + o.Warning + ")"
		}
		return detail
	case organizer.StatusSkipped:
		return strings.ReplaceAll(string(o.Reason), "_", " ")
	default:
		return fmt.Sprintf("%s: %s", o.Kind, o.ErrorText())
	}
}
