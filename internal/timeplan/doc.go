// Package timeplan computes the timestamps sampled from a video.
//
// Time values use a fixed rational timescale (Timescale ticks per second) so
// plans over long sources never accumulate floating point drift: every
// timestamp is derived directly from start + span*i/n instead of by repeated
// addition. Ordering and equality are integer comparisons on ticks.
//
// Key entry points:
//   - Plan: frame-count mode (evenly spaced across a span)
//   - PlanRate: frame-rate mode (frame count and delay derived from the rate)
//   - ValidatePoints: checks an explicit list of timestamps
package timeplan
