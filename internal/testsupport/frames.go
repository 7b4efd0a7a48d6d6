package testsupport

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"sync"
	"sync/atomic"

	"regift/internal/extract"
	"regift/internal/timeplan"
)

// Delivery orders callbacks from a ScriptedFrameSource.
type Delivery int

const (
	DeliverInOrder Delivery = iota
	DeliverReverse
	// DeliverConcurrent fires every callback from its own goroutine.
	DeliverConcurrent
)

// StaticAsset is an in-memory extract.Asset.
type StaticAsset struct {
	Path         string
	Length       timeplan.Time
	VisualTracks int
	Width        int
	Height       int
	// Rate is the native frame rate; zero means unknown.
	Rate float64
}

func (a StaticAsset) Location() string                 { return a.Path }
func (a StaticAsset) Duration() timeplan.Time          { return a.Length }
func (a StaticAsset) VisualTrackCount() int            { return a.VisualTracks }
func (a StaticAsset) NaturalSize() (width, height int) { return a.Width, a.Height }
func (a StaticAsset) FrameRate() float64               { return a.Rate }

// IndexedImage returns a 1px tall image whose width is index+1, so tests can
// read the plan index back from an appended frame.
func IndexedImage(index int) image.Image {
	return SolidImage(index+1, 1, color.Gray{Y: uint8(index * 10)})
}

// ScriptedFrameSource is a deterministic extract.FrameSource.
type ScriptedFrameSource struct {
	Delivery Delivery
	// FailAt makes the request at this plan index report an error. Negative disables.
	FailAt int
	// SkipAt makes the request at this plan index never report. Negative disables.
	SkipAt int
	// Image renders the frame for a plan index. Defaults to IndexedImage.
	Image func(index int) image.Image

	mu       sync.Mutex
	requests []extract.Request
	canceled atomic.Bool
}

// NewScriptedFrameSource returns a source that delivers every frame in order
// from a single goroutine.
func NewScriptedFrameSource() *ScriptedFrameSource {
	return &ScriptedFrameSource{FailAt: -1, SkipAt: -1}
}

// RequestFrames implements extract.FrameSource.
func (s *ScriptedFrameSource) RequestFrames(ctx context.Context, asset extract.Asset, req extract.Request, onResult func(extract.Result)) (extract.CancelFunc, error) {
	if len(req.Times) == 0 {
		return nil, errors.New("no timestamps")
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	order := make([]int, 0, len(req.Times))
	for i := range req.Times {
		if i != s.SkipAt {
			order = append(order, i)
		}
	}
	result := func(i int) extract.Result {
		ts := req.Times[i]
		if i == s.FailAt {
			return extract.Result{Requested: ts, Err: fmt.Errorf("scripted failure at %s", ts)}
		}
		render := s.Image
		if render == nil {
			render = IndexedImage
		}
		return extract.Result{Requested: ts, Actual: ts, Image: render(i)}
	}

	switch s.Delivery {
	case DeliverConcurrent:
		rand.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		for _, i := range order {
			go onResult(result(i))
		}
	default:
		if s.Delivery == DeliverReverse {
			for a, b := 0, len(order)-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
		}
		go func() {
			for _, i := range order {
				onResult(result(i))
			}
		}()
	}
	return func() { s.canceled.Store(true) }, nil
}

// Requests returns every batch received so far.
func (s *ScriptedFrameSource) Requests() []extract.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]extract.Request(nil), s.requests...)
}

// Canceled reports whether the cancel handle was invoked.
func (s *ScriptedFrameSource) Canceled() bool {
	return s.canceled.Load()
}
