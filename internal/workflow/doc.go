// Package workflow ties configuration, rule loading, the organizer, and the
// history store together into a single "organize this directory" operation.
//
// The Manager reads the rule file and script hook for a root, builds the
// ordered RuleSet, runs the organizer, and records the resulting report.
// Both the sort command and the daemon go through RunOnce so one-shot and
// scheduled runs behave identically.
package workflow
