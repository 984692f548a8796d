// Package history persists organize run reports in a SQLite database so past
// runs can be listed and inspected from the CLI.
//
// The database lives at state_dir/history.db, runs in WAL mode, and is
// upgraded with the embedded SQL migrations on open.
package history
