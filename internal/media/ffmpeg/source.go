// Package ffmpeg extracts still frames by running one ffmpeg process per
// timestamp on a bounded worker pool.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"regift/internal/extract"
	"regift/internal/logging"
	"regift/internal/timeplan"
)

const (
	defaultWorkers = 4
	waitDelay      = 2 * time.Second
)

// Options configures a Source.
type Options struct {
	Binary  string
	Workers int
	Logger  *slog.Logger
}

// Source is an extract.FrameSource backed by the ffmpeg CLI.
type Source struct {
	binary  string
	workers int
	logger  *slog.Logger
}

// New builds a Source. Zero values select "ffmpeg" and four workers.
func New(opts Options) *Source {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Source{binary: binary, workers: workers, logger: logging.NewComponentLogger(opts.Logger, "ffmpeg")}
}

// RequestFrames starts the batch and returns immediately. Every requested
// timestamp gets exactly one callback; after cancellation the remaining ones
// report the context error.
func (s *Source) RequestFrames(ctx context.Context, asset extract.Asset, req extract.Request, onResult func(extract.Result)) (extract.CancelFunc, error) {
	if asset == nil || strings.TrimSpace(asset.Location()) == "" {
		return nil, errors.New("ffmpeg: asset has no location")
	}
	if len(req.Times) == 0 {
		return nil, errors.New("ffmpeg: no timestamps requested")
	}

	batchCtx, cancel := context.WithCancel(ctx)
	jobs := make(chan timeplan.Time)
	workers := min(s.workers, len(req.Times))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ts := range jobs {
				onResult(s.grab(batchCtx, asset.Location(), ts, req.MaxDimension))
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, ts := range req.Times {
			if batchCtx.Err() != nil {
				onResult(extract.Result{Requested: ts, Err: batchCtx.Err()})
				continue
			}
			select {
			case jobs <- ts:
			case <-batchCtx.Done():
				onResult(extract.Result{Requested: ts, Err: batchCtx.Err()})
			}
		}
	}()

	go func() {
		wg.Wait()
		cancel()
	}()

	return extract.CancelFunc(cancel), nil
}

func (s *Source) grab(ctx context.Context, location string, ts timeplan.Time, maxDimension int) extract.Result {
	res := extract.Result{Requested: ts}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	args := Args(location, ts, maxDimension)
	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = ctxErr
			return res
		}
		res.Err = fmt.Errorf("ffmpeg frame at %s: %w: %s", ts, err, strings.TrimSpace(stderr.String()))
		return res
	}
	if len(out) == 0 {
		res.Err = fmt.Errorf("ffmpeg produced no frame at %s", ts)
		return res
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		res.Err = fmt.Errorf("decode frame at %s: %w", ts, err)
		return res
	}
	s.logger.Debug("frame grabbed", logging.String("timestamp", ts.String()), logging.Int("bytes", len(out)))

	res.Actual = ts
	res.Image = img
	return res
}

// Args builds the ffmpeg argument list for one frame. Input seeking is frame
// accurate, so the returned frame sits at the requested time.
func Args(location string, ts timeplan.Time, maxDimension int) []string {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(ts.Seconds(), 'f', 3, 64),
		"-i", location,
		"-frames:v", "1",
	}
	if maxDimension > 0 {
		args = append(args, "-vf", fmt.Sprintf(
			"scale=w='min(iw,%d)':h='min(ih,%d)':force_original_aspect_ratio=decrease", maxDimension, maxDimension))
	}
	return append(args, "-f", "image2pipe", "-vcodec", "png", "pipe:1")
}
