// Package services defines shared utilities consumed by the conversion
// pipeline and its outer surfaces (CLI, HTTP API, history, metrics).
//
// Key responsibilities:
//   - Error kind markers plus the Wrap helper that tag failures so callers can
//     classify them with errors.Is regardless of how deeply they were wrapped.
//   - Kind, which maps an error back to a stable snake_case name used in
//     history rows, metric labels and API responses.
//   - Context helpers that stamp conversion identifiers for logging.
package services
