// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs the binary and decodes its JSON; helper methods on Result
// answer the questions the converter asks of a source: how many visual
// tracks it has, their natural size, and how long it runs.
package ffprobe
