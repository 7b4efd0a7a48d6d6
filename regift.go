// Package regift converts spans of a video into animated GIFs by sampling
// frames at planned timestamps and assembling them in timeline order.
//
// Most callers only need NewFromConfig and Convert:
//
//	cfg, _, _, err := config.Load("")
//	conv, err := regift.NewFromConfig(cfg, nil)
//	path, err := conv.Convert(ctx, regift.Request{Source: "clip.mp4", FrameCount: 10})
//
// Errors wrap one of the exported kind markers; branch with errors.Is.
package regift

import (
	"context"
	"log/slog"

	"regift/internal/config"
	"regift/internal/convert"
	"regift/internal/services"
	"regift/internal/timeplan"
)

type (
	// Request describes one conversion.
	Request = convert.Request
	// Mode names the sampling mode of a request.
	Mode = convert.Mode
	// Converter runs conversions.
	Converter = convert.Converter
	// Options wires a Converter from explicit collaborators.
	Options = convert.Options
	// Time is a position on the media timeline.
	Time = timeplan.Time
)

const (
	ModeFrameCount = convert.ModeFrameCount
	ModeFrameRate  = convert.ModeFrameRate
	ModeTimePoints = convert.ModeTimePoints
)

// Error kind markers.
var (
	ErrInvalidRequest         = services.ErrInvalidRequest
	ErrSourceFormatInvalid    = services.ErrSourceFormatInvalid
	ErrDestinationUnavailable = services.ErrDestinationUnavailable
	ErrFrameExtractionFailed  = services.ErrFrameExtractionFailed
	ErrEncodeAppendFailed     = services.ErrEncodeAppendFailed
	ErrEncodeFinalizeFailed   = services.ErrEncodeFinalizeFailed
	ErrTimeout                = services.ErrTimeout
	ErrCanceled               = services.ErrCanceled
)

// Seconds converts floating point seconds to a timeline position.
func Seconds(s float64) Time {
	return timeplan.FromSeconds(s)
}

// ErrorKind returns the snake_case name of err's kind marker.
func ErrorKind(err error) string {
	return services.Kind(err)
}

// NewConverter builds a Converter from explicit collaborators.
func NewConverter(opts Options) (*Converter, error) {
	return convert.New(opts)
}

// NewFromConfig builds a Converter backed by ffprobe, ffmpeg, and the
// standard library GIF encoder. History and metrics are not wired.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Converter, error) {
	return convert.NewFromConfig(cfg, nil, nil, logger)
}

// Convert loads the default configuration and runs a single conversion.
func Convert(ctx context.Context, req Request) (string, error) {
	cfg, _, _, err := config.Load("")
	if err != nil {
		return "", err
	}
	conv, err := NewFromConfig(cfg, nil)
	if err != nil {
		return "", err
	}
	return conv.Convert(ctx, req)
}

// ConvertAsync is Convert on a new goroutine. completion is invoked exactly
// once.
func ConvertAsync(ctx context.Context, req Request, completion func(path string, err error)) {
	go func() {
		path, err := Convert(ctx, req)
		if completion != nil {
			completion(path, err)
		}
	}()
}
