// Package logging constructs the slog loggers used across bookherald.
//
// Two output formats are supported: a compact console format for
// interactive runs and JSON for collection by log shippers. Output goes
// to stdout and, when a log directory is configured, to bookherald.log
// inside it.
package logging
