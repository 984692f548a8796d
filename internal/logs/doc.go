// Package logs reads the daemon's session log for the CLI: the last lines
// of the file and, in follow mode, lines appended afterwards.
package logs
