// Package logging assembles structured slog loggers and formatting helpers used
// across ytmeta.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so indexing code can tag log
// lines with run IDs and show names. A no-op logger is provided for tests and
// for library callers that do not supply one.
package logging
