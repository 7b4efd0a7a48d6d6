package timeplan

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidFrameCount = errors.New("frame count must be positive")
	ErrInvalidFrameRate  = errors.New("frame rate must be positive")
	ErrInvalidSpan       = errors.New("span must be positive")
	ErrInvalidStart      = errors.New("start must not be negative")
	ErrSpanTooShort      = errors.New("span is shorter than one tick per frame")
	ErrNotIncreasing     = errors.New("time points must be strictly increasing")
	ErrEmptyPoints       = errors.New("no time points")
	ErrTooManyFrames     = errors.New("too many frames")
)

const (
	// maxSpanTicks keeps span*index inside int64 for any frame count the span allows.
	maxSpanTicks = int64(1) << 31
	// MaxFrames is the hard ceiling on timestamps in one plan.
	MaxFrames = 10000
)

// RatePlan is the result of planning in frame-rate mode.
type RatePlan struct {
	FrameCount int
	Delay      time.Duration
	Times      []Time
}

// Plan returns frameCount timestamps evenly spaced over [start, start+span).
// The first timestamp equals start and the sequence is strictly increasing.
func Plan(start, span Time, frameCount int) ([]Time, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameCount, frameCount)
	}
	if frameCount > MaxFrames {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyFrames, frameCount, MaxFrames)
	}
	if start.ticks < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStart, start)
	}
	if span.ticks <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSpan, span)
	}
	if span.ticks > maxSpanTicks {
		return nil, fmt.Errorf("%w: %s exceeds supported range", ErrInvalidSpan, span)
	}
	if span.ticks < int64(frameCount) {
		return nil, fmt.Errorf("%w: %d frames over %s", ErrSpanTooShort, frameCount, span)
	}

	n := int64(frameCount)
	times := make([]Time, frameCount)
	for i := int64(0); i < n; i++ {
		times[i] = Time{ticks: start.ticks + span.ticks*i/n}
	}
	return times, nil
}

// PlanRate derives the frame count (floor(span * frameRate)) and per-frame
// delay (1 / frameRate) and plans the timestamps with Plan.
func PlanRate(start, span Time, frameRate int) (RatePlan, error) {
	if frameRate <= 0 {
		return RatePlan{}, fmt.Errorf("%w: %d", ErrInvalidFrameRate, frameRate)
	}
	if span.ticks <= 0 {
		return RatePlan{}, fmt.Errorf("%w: %s", ErrInvalidSpan, span)
	}
	if span.ticks > maxSpanTicks {
		return RatePlan{}, fmt.Errorf("%w: %s exceeds supported range", ErrInvalidSpan, span)
	}
	if frameRate > Timescale {
		return RatePlan{}, fmt.Errorf("%w: %d fps is finer than one tick", ErrSpanTooShort, frameRate)
	}
	count := span.ticks * int64(frameRate) / Timescale
	if count <= 0 {
		return RatePlan{}, fmt.Errorf("%w: %s at %d fps yields no frames", ErrInvalidFrameCount, span, frameRate)
	}
	if count > MaxFrames {
		return RatePlan{}, fmt.Errorf("%w: %s at %d fps yields %d, limit %d", ErrTooManyFrames, span, frameRate, count, MaxFrames)
	}
	times, err := Plan(start, span, int(count))
	if err != nil {
		return RatePlan{}, err
	}
	return RatePlan{
		FrameCount: int(count),
		Delay:      time.Second / time.Duration(frameRate),
		Times:      times,
	}, nil
}

// ValidatePoints checks an explicit list of sample timestamps.
func ValidatePoints(points []Time) error {
	if len(points) == 0 {
		return ErrEmptyPoints
	}
	if len(points) > MaxFrames {
		return fmt.Errorf("%w: %d points exceed %d", ErrTooManyFrames, len(points), MaxFrames)
	}
	for i, p := range points {
		if p.ticks < 0 {
			return fmt.Errorf("%w: point %d is %s", ErrInvalidStart, i, p)
		}
		if i > 0 && !points[i-1].Before(p) {
			return fmt.Errorf("%w: point %d (%s) follows %s", ErrNotIncreasing, i, p, points[i-1])
		}
	}
	return nil
}
