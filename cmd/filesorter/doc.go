// Package main hosts the filesorter CLI entrypoint and command graph.
//
// The Cobra-based command tree sorts a directory once, runs the recurring
// daemon, registers the daemon as a system service, and inspects rules and
// run history. Configuration is resolved once per invocation through the
// shared command context; the work itself lives in the internal packages.
package main
