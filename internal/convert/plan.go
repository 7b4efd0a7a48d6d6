package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"regift/internal/extract"
	"regift/internal/services"
	"regift/internal/textutil"
	"regift/internal/timeplan"
)

// DefaultFileName is used in the system temp directory when neither the
// request nor the configuration names an output location.
const DefaultFileName = "regift.gif"

type samplePlan struct {
	mode  Mode
	times []timeplan.Time
	delay time.Duration
}

// buildPlan resolves the sample timestamps. maxFrames caps the plan below
// timeplan.MaxFrames; zero leaves only the hard ceiling.
func buildPlan(req Request, asset extract.Asset, defaultDelay time.Duration, maxFrames int) (samplePlan, error) {
	p := samplePlan{mode: req.Mode(), delay: req.Delay}
	if p.delay == 0 {
		p.delay = defaultDelay
	}
	if maxFrames <= 0 || maxFrames > timeplan.MaxFrames {
		maxFrames = timeplan.MaxFrames
	}
	if req.FrameCount > maxFrames || len(req.TimePoints) > maxFrames {
		return samplePlan{}, tooManyFrames(max(req.FrameCount, len(req.TimePoints)), maxFrames)
	}

	if p.mode == ModeTimePoints {
		p.times = append([]timeplan.Time(nil), req.TimePoints...)
		return p, nil
	}

	span, err := resolveSpan(req, asset.Duration())
	if err != nil {
		return samplePlan{}, err
	}
	switch p.mode {
	case ModeFrameCount:
		times, err := timeplan.Plan(req.Start, span, req.FrameCount)
		if err != nil {
			return samplePlan{}, planError(err)
		}
		p.times = times
	case ModeFrameRate:
		rp, err := timeplan.PlanRate(req.Start, span, req.FrameRate)
		if err != nil {
			return samplePlan{}, planError(err)
		}
		if rp.FrameCount > maxFrames {
			return samplePlan{}, tooManyFrames(rp.FrameCount, maxFrames)
		}
		p.times = rp.Times
		p.delay = rp.Delay
	default:
		return samplePlan{}, invalid("no sampling mode")
	}
	return p, nil
}

func tooManyFrames(count, limit int) error {
	return services.Wrap(services.ErrInvalidRequest, "convert", "plan",
		fmt.Sprintf("%d frames exceeds the limit of %d", count, limit), timeplan.ErrTooManyFrames)
}

// resolveSpan returns the explicit duration, or the rest of the source
// after Start.
func resolveSpan(req Request, total timeplan.Time) (timeplan.Time, error) {
	if !req.Duration.IsZero() {
		return req.Duration, nil
	}
	if total.Ticks() <= 0 {
		return timeplan.Zero, services.Wrap(services.ErrSourceFormatInvalid, "convert", "plan", "source has no duration", nil)
	}
	if !req.Start.Before(total) {
		return timeplan.Zero, invalid(fmt.Sprintf("start %s is not before source end %s", req.Start, total))
	}
	return total.Sub(req.Start), nil
}

func planError(err error) error {
	msg := "sample plan"
	switch {
	case errors.Is(err, timeplan.ErrSpanTooShort):
		msg = "span too short for frame count"
	case errors.Is(err, timeplan.ErrTooManyFrames):
		msg = "too many frames"
	}
	return services.Wrap(services.ErrInvalidRequest, "convert", "plan", msg, err)
}

// resolveDestination picks the output path. An existing directory receives
// <source name>.gif.
func resolveDestination(requested, outputDir, source string) string {
	name := stem(source) + ".gif"
	dest := strings.TrimSpace(requested)
	if dest == "" {
		if strings.TrimSpace(outputDir) == "" {
			return filepath.Join(os.TempDir(), DefaultFileName)
		}
		return filepath.Join(outputDir, name)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, name)
	}
	return dest
}

func stem(path string) string {
	return textutil.Stem(path, strings.TrimSuffix(DefaultFileName, ".gif"))
}

// maxDimension resolves the bound on the longer frame edge. It never returns
// zero: without a request or configured value the source's natural size wins.
func maxDimension(requested, configured int, asset extract.Asset) (int, error) {
	if requested > 0 {
		return requested, nil
	}
	if configured > 0 {
		return configured, nil
	}
	width, height := asset.NaturalSize()
	if size := max(width, height); size > 0 {
		return size, nil
	}
	return 0, services.Wrap(services.ErrSourceFormatInvalid, "convert", "resolve size", "source has no natural size", nil)
}
