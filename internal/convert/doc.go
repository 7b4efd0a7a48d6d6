// Package convert runs one video to GIF conversion: it probes the source,
// plans sample timestamps, streams extracted frames into an assembler
// session in plan order, and publishes the finished file.
//
// Convert blocks exactly once, inside the extraction coordinator. Any error
// from probing, planning, extraction, appending, or finalizing is returned
// unchanged and leaves no file at the destination.
package convert
