// Package organizer sorts the files of a directory into destination folders.
//
// A run scans the root, resolves each candidate against a rules.RuleSet, and
// moves matched files into root/<destination>, collecting one Outcome per
// file into a RunReport. Moves never overwrite: name collisions are resolved
// by probing "name (1).ext", "name (2).ext", and so on. Cross-device renames
// fall back to a verified copy followed by removal of the source.
//
// Per-file problems are recorded as failed outcomes and never stop a run;
// only failing to read the root directory itself is returned as an error.
package organizer
