package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filesorter/internal/workflow"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the rules that apply to a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			root, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			src, err := workflow.NewManager(cfg, logger).LoadRules(cmd.Context(), root)
			if err != nil {
				return err
			}
			view := newRulesView(root, cfg.Rules.ScriptPrecedence, src)
			if ctx.jsonMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			writeLines(out, renderSectionHeader("Rules for "+root, colorize)...)
			writeLines(out,
				renderStatusLine("Rule file", sourceKind(view.RuleFileUsed), ruleFileMessage(view), colorize),
				renderStatusLine("Script", scriptKind(view), scriptMessage(view), colorize),
			)
			if len(view.Rules) == 0 {
				fmt.Fprintln(out, "No rules configured; every file stays in place.")
				return nil
			}
			rows := make([][]string, 0, len(view.Rules))
			for _, r := range view.Rules {
				dest := r.Destination
				if r.Type == "script" {
					dest = "(chosen by script)"
					if len(r.Declared) > 0 {
						dest += " " + strings.Join(r.Declared, ", ")
					}
				}
				rows = append(rows, []string{strconv.Itoa(r.Position), r.Type, r.Match, dest})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Type", "Match", "Destination"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory whose rules to show")
	return cmd
}

func sourceKind(used bool) statusKind {
	if used {
		return statusOK
	}
	return statusInfo
}

func ruleFileMessage(view rulesView) string {
	switch {
	case view.RuleFileUsed:
		return view.RuleFile
	case view.UsedDefaults:
		return "not found, using built-in rules"
	default:
		return "not found"
	}
}

func scriptKind(view rulesView) statusKind {
	if view.ScriptError != "" {
		return statusWarn
	}
	return sourceKind(view.ScriptUsed)
}

func scriptMessage(view rulesView) string {
	if view.ScriptError != "" {
		return view.ScriptError + " (matches nothing)"
	}
	if !view.ScriptUsed {
		return "not found"
	}
	return fmt.Sprintf("%s (%s extension rules)", view.ScriptFile, view.ScriptPrecedence)
}
