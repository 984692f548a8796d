// Package logging assembles structured slog loggers and formatting helpers
// used across filesorter.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so organizer code tags every line
// with the run it belongs to. The daemon tees its console output into a
// per-session JSON file through TeeLogger, and CleanupOldLogs prunes those
// files once they age past the configured retention.
//
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
