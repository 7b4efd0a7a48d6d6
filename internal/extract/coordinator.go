package extract

import (
	"context"
	"errors"
	"log/slog"

	"regift/internal/logging"
	"regift/internal/services"
	"regift/internal/timeplan"
)

// Options tunes one batch.
type Options struct {
	Tolerance    timeplan.Tolerance
	MaxDimension int
	// Progress receives completed/total after every newly completed frame.
	// It runs on the caller's goroutine, so values never decrease.
	Progress func(fraction float64)
	// OnFrame receives frames strictly in plan-index order on the caller's
	// goroutine. A non-nil error aborts the batch and is returned verbatim.
	OnFrame func(Frame) error
}

// Coordinator drives a FrameSource and blocks until the batch resolves.
type Coordinator struct {
	source FrameSource
	logger *slog.Logger
}

// NewCoordinator builds a coordinator for the given frame source.
func NewCoordinator(source FrameSource, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		source: source,
		logger: logging.NewComponentLogger(logger, "extract"),
	}
}

// Run requests every timestamp in one batch and streams frames to
// opts.OnFrame in plan order. It returns nil once every frame was delivered,
// or the first error: a frame failure (ErrFrameExtractionFailed), an OnFrame
// failure, or the context ending (ErrTimeout / ErrCanceled). On error the
// remaining requests are cancelled.
func (c *Coordinator) Run(ctx context.Context, asset Asset, times []timeplan.Time, opts Options) error {
	_, err := c.run(ctx, asset, times, opts)
	return err
}

// Extract is Run without streaming: it returns all frames indexed by plan
// position. On error the slice still holds every frame that completed before
// the failure; missing entries have a nil Image.
func (c *Coordinator) Extract(ctx context.Context, asset Asset, times []timeplan.Time, opts Options) ([]Frame, error) {
	opts.OnFrame = nil
	l, err := c.run(ctx, asset, times, opts)
	if l == nil {
		return nil, err
	}
	return l.frames, err
}

func (c *Coordinator) run(ctx context.Context, asset Asset, times []timeplan.Time, opts Options) (*ledger, error) {
	if c == nil || c.source == nil {
		return nil, services.Wrap(services.ErrFrameExtractionFailed, "extract", "configure", "frame source unavailable", nil)
	}
	if asset == nil {
		return nil, services.Wrap(services.ErrInvalidRequest, "extract", "configure", "asset is required", nil)
	}
	if len(times) == 0 {
		return nil, services.Wrap(services.ErrInvalidRequest, "extract", "configure", "no timestamps requested", nil)
	}
	l, err := newLedger(times)
	if err != nil {
		return nil, err
	}
	l.tolerance = opts.Tolerance
	logger := logging.WithContext(ctx, c.logger)

	sourceCtx, stopSource := context.WithCancel(ctx)
	defer stopSource()

	box := newInbox(len(times))
	req := Request{Times: times, Tolerance: opts.Tolerance, MaxDimension: opts.MaxDimension}
	cancel, err := c.source.RequestFrames(sourceCtx, asset, req, func(r Result) {
		box.push(r)
	})
	if err != nil {
		box.close()
		return l, services.Wrap(services.ErrFrameExtractionFailed, "extract", "request batch", "frame source rejected batch", err)
	}
	logger.Debug("frame batch requested",
		logging.Int(logging.FieldFrameCount, l.total()),
		logging.String("source", asset.Location()),
	)

	for !l.done() {
		select {
		case <-box.notify:
		case <-ctx.Done():
		}
		// A source answers a dead context with error results, so the deadline
		// has to win over whatever is queued in the inbox.
		if err := ctx.Err(); err != nil {
			l.firstErr = services.FromContext("extract", "wait for frames", err)
			break
		}
		for _, r := range box.drain() {
			if r.Err != nil && ctx.Err() != nil {
				l.firstErr = services.FromContext("extract", "wait for frames", ctx.Err())
				break
			}
			if l.record(r) && opts.Progress != nil {
				opts.Progress(l.progress())
			}
			if l.firstErr != nil {
				break
			}
		}
		if l.firstErr == nil && opts.OnFrame != nil {
			l.firstErr = emitReady(l, opts.OnFrame)
		}
	}

	dropped := box.close()
	if l.firstErr != nil {
		if cancel != nil {
			cancel()
		}
		attrs := []logging.Attr{
			logging.Int("completed", l.completed),
			logging.Int(logging.FieldFrameCount, l.total()),
			logging.String(logging.FieldErrorKind, services.Kind(l.firstErr)),
			logging.Error(l.firstErr),
		}
		if errors.Is(l.firstErr, services.ErrCanceled) {
			logger.Info("frame batch canceled", logging.Args(attrs...)...)
		} else {
			logging.WarnWithContext(logger, "frame batch aborted", "extract_batch_aborted", attrs...)
		}
		return l, l.firstErr
	}

	if l.drifted > 0 {
		logging.WarnWithContext(logger, "frames outside tolerance", "extract_tolerance_exceeded",
			logging.Int("drifted", l.drifted),
			logging.Int(logging.FieldFrameCount, l.total()),
			logging.String(logging.FieldErrorHint, "the source may have sparse keyframes; widen conversion.tolerance_seconds"),
			logging.String(logging.FieldImpact, "some frames are not at their planned times"),
		)
	}
	logger.Debug("frame batch complete",
		logging.Int(logging.FieldFrameCount, l.total()),
		logging.Int("ignored_results", l.ignored+dropped),
	)
	return l, nil
}

func emitReady(l *ledger, onFrame func(Frame) error) error {
	for _, f := range l.ready() {
		if err := onFrame(f); err != nil {
			return err
		}
		l.frames[f.Index].Image = nil
	}
	return nil
}
