package timeplan

import (
	"fmt"
	"math"
	"time"
)

// Timescale is the number of ticks per second used by every Time value.
const Timescale = 600

// Time is a point or span on the media timeline expressed in Timescale ticks.
type Time struct {
	ticks int64
}

// Zero is the start of the timeline.
var Zero = Time{}

// FromTicks builds a Time from a raw tick count.
func FromTicks(ticks int64) Time {
	return Time{ticks: ticks}
}

// FromRational builds a Time from num/den seconds, rounding to the nearest tick.
func FromRational(num, den int64) Time {
	if den == 0 {
		return Zero
	}
	scaled := num * Timescale
	q, r := scaled/den, scaled%den
	if r != 0 && 2*absInt64(r) >= absInt64(den) {
		if (r < 0) != (den < 0) {
			q--
		} else {
			q++
		}
	}
	return Time{ticks: q}
}

// FromSeconds converts floating point seconds to the nearest tick.
func FromSeconds(seconds float64) Time {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Zero
	}
	return Time{ticks: int64(math.Round(seconds * Timescale))}
}

// FromDuration converts a time.Duration to the nearest tick.
func FromDuration(d time.Duration) Time {
	return FromRational(int64(d), int64(time.Second))
}

// Ticks returns the raw tick count.
func (t Time) Ticks() int64 {
	return t.ticks
}

// Seconds returns the value in seconds. Use only for display and external tools.
func (t Time) Seconds() float64 {
	return float64(t.ticks) / Timescale
}

// Duration converts the value to a time.Duration, truncating below one nanosecond.
func (t Time) Duration() time.Duration {
	return time.Duration(t.ticks) * time.Second / Timescale
}

// Add returns t+o.
func (t Time) Add(o Time) Time {
	return Time{ticks: t.ticks + o.ticks}
}

// Sub returns t-o.
func (t Time) Sub(o Time) Time {
	return Time{ticks: t.ticks - o.ticks}
}

// Cmp returns -1, 0 or +1 depending on whether t is before, equal to or after o.
func (t Time) Cmp(o Time) int {
	switch {
	case t.ticks < o.ticks:
		return -1
	case t.ticks > o.ticks:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly before o.
func (t Time) Before(o Time) bool {
	return t.ticks < o.ticks
}

// IsZero reports whether t is the start of the timeline.
func (t Time) IsZero() bool {
	return t.ticks == 0
}

// String renders the value as seconds with millisecond precision.
func (t Time) String() string {
	return fmt.Sprintf("%.3fs", t.Seconds())
}

// Tolerance is the window around a requested timestamp within which a frame
// source may return a different actual timestamp.
type Tolerance struct {
	Before Time
	After  Time
}

// DefaultTolerance allows 0.01s on either side of a requested timestamp.
var DefaultTolerance = Symmetric(FromRational(1, 100))

// Symmetric returns a tolerance applying the same window before and after.
func Symmetric(window Time) Tolerance {
	return Tolerance{Before: window, After: window}
}

// Contains reports whether actual falls inside the window around requested.
func (tol Tolerance) Contains(requested, actual Time) bool {
	return !actual.Before(requested.Sub(tol.Before)) && !requested.Add(tol.After).Before(actual)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
