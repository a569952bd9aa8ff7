// Package logging assembles structured slog loggers used across the Podcast
// Plus client.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so wizard and API code can tag
// log lines with job IDs, step names, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
