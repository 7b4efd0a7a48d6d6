package extract

import (
	"context"
	"errors"
	"fmt"

	"regift/internal/services"
	"regift/internal/timeplan"
)

// ledger is the completion state for one batch. It is owned by the collector
// goroutine and never touched by callbacks directly.
type ledger struct {
	index     map[int64]int
	times     []timeplan.Time
	frames    []Frame
	filled    []bool
	completed int
	next      int
	firstErr  error
	ignored   int
	// tolerance bounds each Actual; drifted counts frames outside it.
	tolerance timeplan.Tolerance
	drifted   int
}

func newLedger(times []timeplan.Time) (*ledger, error) {
	index := make(map[int64]int, len(times))
	for i, ts := range times {
		if _, dup := index[ts.Ticks()]; dup {
			return nil, services.Wrap(services.ErrInvalidRequest, "extract", "index timestamps",
				fmt.Sprintf("duplicate timestamp %s at index %d", ts, i), nil)
		}
		index[ts.Ticks()] = i
	}
	return &ledger{
		index:  index,
		times:  times,
		frames: make([]Frame, len(times)),
		filled: make([]bool, len(times)),
	}, nil
}

func (l *ledger) total() int {
	return len(l.times)
}

func (l *ledger) done() bool {
	return l.firstErr != nil || l.completed == l.total()
}

// record applies one result and reports whether it advanced the ledger.
// Unknown and duplicate results are counted as ignored.
func (l *ledger) record(r Result) bool {
	idx, ok := l.index[r.Requested.Ticks()]
	if !ok || l.filled[idx] {
		l.ignored++
		return false
	}
	if r.Err != nil || r.Image == nil {
		if l.firstErr == nil {
			l.firstErr = frameError(idx, r)
		}
		return false
	}
	actual := r.Actual
	if actual.IsZero() && !r.Requested.IsZero() {
		actual = r.Requested
	}
	if !l.tolerance.Contains(r.Requested, actual) {
		l.drifted++
	}
	l.frames[idx] = Frame{Index: idx, Requested: r.Requested, Actual: actual, Image: r.Image}
	l.filled[idx] = true
	l.completed++
	return true
}

func frameError(idx int, r Result) error {
	cause := r.Err
	switch {
	case cause == nil:
		cause = errors.New("frame source returned no image")
	case errors.Is(cause, context.DeadlineExceeded), errors.Is(cause, context.Canceled):
		return services.FromContext("extract", "frame", cause)
	}
	return services.Wrap(services.ErrFrameExtractionFailed, "extract", "frame",
		fmt.Sprintf("frame %d at %s", idx, r.Requested), cause)
}

// ready pops the contiguous prefix of frames that has not been emitted yet.
func (l *ledger) ready() []Frame {
	start := l.next
	for l.next < len(l.filled) && l.filled[l.next] {
		l.next++
	}
	if start == l.next {
		return nil
	}
	return l.frames[start:l.next]
}

func (l *ledger) progress() float64 {
	if l.total() == 0 {
		return 1
	}
	return float64(l.completed) / float64(l.total())
}
