// Package source exposes probed media files as extraction assets.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"regift/internal/media/ffprobe"
	"regift/internal/services"
	"regift/internal/timeplan"
)

// inspect is swapped in tests.
var inspect = ffprobe.Inspect

// Asset is a read-only, probed media file. It is safe for concurrent use.
type Asset struct {
	location  string
	duration  timeplan.Time
	visual    int
	width     int
	height    int
	frameRate float64
}

// New builds an asset from already-known properties.
func New(location string, duration timeplan.Time, visualTracks, width, height int) *Asset {
	return &Asset{location: location, duration: duration, visual: visualTracks, width: width, height: height}
}

// Open probes path with ffprobe. Missing files and files ffprobe cannot parse
// are reported as ErrSourceFormatInvalid.
func Open(ctx context.Context, ffprobeBinary, path string) (*Asset, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrInvalidRequest, "probe", "open source", "source path is required", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrSourceFormatInvalid, "probe", "open source", "source does not exist", err)
		}
		return nil, services.Wrap(services.ErrSourceFormatInvalid, "probe", "open source", "source unreadable", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrSourceFormatInvalid, "probe", "open source", "source is a directory", nil)
	}

	result, err := inspect(ctx, ffprobeBinary, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, services.FromContext("probe", "inspect source", ctxErr)
		}
		return nil, services.Wrap(services.ErrSourceFormatInvalid, "probe", "inspect source", "ffprobe could not read source", err)
	}

	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return nil, services.Wrap(services.ErrSourceFormatInvalid, "probe", "inspect source",
			fmt.Sprintf("unusable duration %q", result.Format.Duration), nil)
	}
	width, height := result.NaturalSize()
	return &Asset{
		location:  path,
		duration:  timeplan.FromSeconds(seconds),
		visual:    result.VisualTrackCount(),
		width:     width,
		height:    height,
		frameRate: result.FrameRate(),
	}, nil
}

func (a *Asset) Location() string { return a.location }

func (a *Asset) Duration() timeplan.Time { return a.duration }

func (a *Asset) VisualTrackCount() int { return a.visual }

func (a *Asset) NaturalSize() (width, height int) { return a.width, a.height }

// FrameRate is the average frame rate of the first visual track, or 0 when unknown.
func (a *Asset) FrameRate() float64 { return a.frameRate }
