package extract

import (
	"context"
	"image"

	"regift/internal/timeplan"
)

// Asset is a read-only media source. It is shared by every request in a batch
// and may be read concurrently.
type Asset interface {
	// Location identifies the source for the frame source (usually a path).
	Location() string
	// Duration is the full length of the source.
	Duration() timeplan.Time
	// VisualTrackCount reports how many tracks carry pictures.
	VisualTrackCount() int
	// NaturalSize is the display size of the first visual track.
	NaturalSize() (width, height int)
}

// Request describes one batch submitted to a FrameSource.
type Request struct {
	Times        []timeplan.Time
	Tolerance    timeplan.Tolerance
	MaxDimension int
}

// Result is reported by a FrameSource for one requested timestamp.
// Exactly one of Image or Err is set.
type Result struct {
	Requested timeplan.Time
	Actual    timeplan.Time
	Image     image.Image
	Err       error
}

// CancelFunc asks a FrameSource to abandon requests that have not completed.
// It is best-effort: results may still arrive afterwards.
type CancelFunc func()

// FrameSource produces rasterized frames asynchronously.
//
// RequestFrames must not block until the batch finishes. onResult may be
// called concurrently from any goroutine, including synchronously from within
// RequestFrames.
type FrameSource interface {
	RequestFrames(ctx context.Context, asset Asset, req Request, onResult func(Result)) (CancelFunc, error)
}

// Frame is a successfully extracted sample at its plan index.
type Frame struct {
	Index     int
	Requested timeplan.Time
	Actual    timeplan.Time
	Image     image.Image
}
