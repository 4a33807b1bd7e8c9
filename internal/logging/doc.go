// Package logging assembles structured slog loggers and formatting helpers used
// across wikistream.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers so pipeline stages tag log lines with their
// component, stage and run ID. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
