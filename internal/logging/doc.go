// Package logging assembles structured slog loggers and formatting helpers used
// across regift.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so conversion code can tag log
// lines with conversion IDs, stages, and request IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
