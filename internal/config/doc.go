// Package config loads and validates the bookherald TOML configuration.
//
// Configuration covers the ambient concerns of the tool: storage and log
// directories, Google Books API connection settings, the daily quota
// budget and its timezone, the delivery channel, and log output. Job
// definitions (queries, intervals, per-run caps) live in a separate YAML
// file handled by internal/jobs.
package config
