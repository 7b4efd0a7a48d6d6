// Package main hosts the regift CLI.
//
// The Cobra command tree runs one-off conversions with a terminal progress
// bar, inspects the conversion history database, reports preflight status,
// serves the HTTP API, and scaffolds configuration. Conversion logic lives in
// internal/convert; commands here only translate flags into requests.
package main
