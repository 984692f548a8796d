// Package config loads, normalizes, and validates filesorter configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// FILESORTER_LOG_LEVEL. The Config type centralizes every knob the daemon and
// CLI need: where rules and scripts live, how they compose, how the scanner
// walks a directory, and how often the daemon ticks.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
