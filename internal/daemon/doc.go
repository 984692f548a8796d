// Package daemon keeps one directory organized on a fixed interval.
//
// A Daemon pairs a scheduler with the workflow manager and guards its root
// with a flock-based lock file under the state directory, so two daemons
// never sort the same directory at once. Process setup (signals, log files,
// pid file) lives in daemonrun; this package only owns the lifecycle.
package daemon
