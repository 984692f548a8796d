package main

import (
	"path/filepath"
	"strings"
	"time"

	"filesorter/internal/organizer"
	"filesorter/internal/rules"
	"filesorter/internal/workflow"
)

type outcomeView struct {
	Source      string `json:"source"`
	Status      string `json:"status"`
	Destination string `json:"destination,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Kind        string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

type reportView struct {
	ID         string        `json:"id"`
	Root       string        `json:"root"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DurationMS int64         `json:"duration_ms"`
	Moved      int           `json:"moved"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Cancelled  bool          `json:"cancelled"`
	Outcomes   []outcomeView `json:"outcomes"`
}

func newReportView(report *organizer.RunReport) reportView {
	view := reportView{
		ID:         report.ID,
		Root:       report.Root,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		DurationMS: report.Duration().Milliseconds(),
		Moved:      report.Moved,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Cancelled:  report.Cancelled,
		Outcomes:   make([]outcomeView, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		view.Outcomes = append(view.Outcomes, outcomeView{
			Source:      o.Source,
			Status:      string(o.Status),
			Destination: o.Destination,
			Reason:      string(o.Reason),
			Kind:        string(o.Kind),
			Error:       o.ErrorText(),
			Warning:     o.Warning,
		})
	}
	return view
}

type ruleView struct {
	Position    int      `json:"position"`
	Type        string   `json:"type"`
	Match       string   `json:"match"`
	Destination string   `json:"destination,omitempty"`
	Declared    []string `json:"declared_destinations,omitempty"`
}

type rulesView struct {
	Root             string     `json:"root"`
	RuleFile         string     `json:"rule_file,omitempty"`
	RuleFileUsed     bool       `json:"rule_file_used"`
	UsedDefaults     bool       `json:"used_defaults"`
	ScriptFile       string     `json:"script_file,omitempty"`
	ScriptUsed       bool       `json:"script_used"`
	ScriptError      string     `json:"script_error,omitempty"`
	ScriptPrecedence string     `json:"script_precedence"`
	Rules            []ruleView `json:"rules"`
	Destinations     []string   `json:"destinations"`
}

func newRulesView(root, precedence string, src *workflow.RuleSource) rulesView {
	view := rulesView{
		Root:             root,
		RuleFile:         src.RuleFile,
		RuleFileUsed:     src.RuleFileUsed,
		UsedDefaults:     src.UsedDefaults,
		ScriptFile:       src.ScriptFile,
		ScriptUsed:       src.ScriptUsed,
		ScriptError:      src.ScriptError,
		ScriptPrecedence: precedence,
		Rules:            []ruleView{},
		Destinations:     src.Set.Destinations(),
	}
	for i, rule := range src.Set.Rules() {
		rv := ruleView{Position: i + 1, Destination: rule.Destination}
		switch m := rule.Matcher.(type) {
		case rules.ExtensionEquals:
			rv.Type = "extension"
			rv.Match = m.Extension
		case rules.ScriptPredicate:
			rv.Type = "script"
			rv.Match = m.Name
			rv.Declared = m.Destinations
		}
		view.Rules = append(view.Rules, rv)
	}
	return view
}

// relativeTo shortens path for display when it lives below root.
func relativeTo(root, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
