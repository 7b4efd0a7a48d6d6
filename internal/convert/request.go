package convert

import (
	"fmt"
	"strings"
	"time"

	"regift/internal/services"
	"regift/internal/timeplan"
)

// Mode names how a request chooses its sample timestamps.
type Mode string

const (
	ModeFrameCount Mode = "frame_count"
	ModeFrameRate  Mode = "frame_rate"
	ModeTimePoints Mode = "time_points"
)

// Request describes one conversion. Exactly one of FrameCount, FrameRate, or
// TimePoints selects the sampling mode.
type Request struct {
	Source string
	// Destination defaults to <output_dir>/<source name>.gif, or regift.gif
	// in the system temp directory when no output directory is configured.
	Destination string

	FrameCount int
	// Delay is the per-frame display time. Derived from FrameRate in that mode.
	Delay time.Duration
	// Start and Duration bound the sampled span. A zero Duration runs to the
	// end of the source.
	Start      timeplan.Time
	Duration   timeplan.Time
	FrameRate  int
	TimePoints []timeplan.Time

	// LoopCount is written unchanged: 0 loops forever, -1 plays once.
	LoopCount int
	// MaxPixelSize bounds the longer frame edge. Zero uses the configured
	// default, then the source's natural size.
	MaxPixelSize int
	Timeout      time.Duration
	// Progress receives non-decreasing values in [0, 1] on the goroutine
	// running Convert. 1.0 is reported once, after the file is published.
	Progress func(float64)
}

// Mode reports the sampling mode, or "" when none or several are set.
func (r Request) Mode() Mode {
	var modes []Mode
	if r.FrameCount != 0 {
		modes = append(modes, ModeFrameCount)
	}
	if r.FrameRate != 0 {
		modes = append(modes, ModeFrameRate)
	}
	if len(r.TimePoints) > 0 {
		modes = append(modes, ModeTimePoints)
	}
	if len(modes) != 1 {
		return ""
	}
	return modes[0]
}

// Validate rejects malformed and ambiguous requests with ErrInvalidRequest.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return invalid("source is required")
	}

	set := 0
	if r.FrameCount != 0 {
		set++
	}
	if r.FrameRate != 0 {
		set++
	}
	if len(r.TimePoints) > 0 {
		set++
	}
	switch {
	case set == 0:
		return invalid("one of frame count, frame rate, or time points is required")
	case set > 1:
		return invalid("frame count, frame rate, and time points are mutually exclusive")
	}

	switch {
	case r.FrameCount < 0:
		return invalid(fmt.Sprintf("frame count must be positive, got %d", r.FrameCount))
	case r.FrameCount > timeplan.MaxFrames:
		return invalid(fmt.Sprintf("frame count %d exceeds the limit of %d", r.FrameCount, timeplan.MaxFrames))
	case r.FrameRate < 0:
		return invalid(fmt.Sprintf("frame rate must be positive, got %d", r.FrameRate))
	case r.FrameRate > timeplan.Timescale:
		return invalid(fmt.Sprintf("frame rate must be at most %d, got %d", timeplan.Timescale, r.FrameRate))
	case r.Delay < 0:
		return invalid("delay must not be negative")
	case r.Start.Ticks() < 0:
		return invalid("start must not be negative")
	case r.Duration.Ticks() < 0:
		return invalid("duration must not be negative")
	case r.LoopCount < -1:
		return invalid(fmt.Sprintf("loop count must be -1 or greater, got %d", r.LoopCount))
	case r.MaxPixelSize < 0:
		return invalid("max pixel size must not be negative")
	case r.Timeout < 0:
		return invalid("timeout must not be negative")
	}

	if r.FrameRate > 0 && r.Delay != 0 {
		return invalid("delay is derived from frame rate and must not be set")
	}
	if len(r.TimePoints) > 0 {
		if !r.Start.IsZero() || !r.Duration.IsZero() {
			return invalid("start and duration do not apply to explicit time points")
		}
		if err := timeplan.ValidatePoints(r.TimePoints); err != nil {
			return services.Wrap(services.ErrInvalidRequest, "convert", "validate", "time points", err)
		}
	}
	return nil
}

func invalid(msg string) error {
	return services.Wrap(services.ErrInvalidRequest, "convert", "validate", msg, nil)
}
