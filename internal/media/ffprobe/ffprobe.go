package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int         `json:"index"`
	CodecName    string      `json:"codec_name"`
	CodecType    string      `json:"codec_type"`
	Duration     string      `json:"duration"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	AvgFrameRate string      `json:"avg_frame_rate"`
	NBFrames     string      `json:"nb_frames"`
	Disposition  Disposition `json:"disposition"`
}

// Disposition carries the stream flags ffprobe reports as 0/1 integers.
type Disposition struct {
	Default     int `json:"default"`
	AttachedPic int `json:"attached_pic"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// IsVisual reports whether the stream carries moving pictures. Cover art is
// exposed as a video stream with the attached_pic disposition and is skipped.
func (s Stream) IsVisual() bool {
	return strings.EqualFold(s.CodecType, "video") && s.Disposition.AttachedPic == 0
}

// VisualTrackCount returns the number of visual streams discovered.
func (r Result) VisualTrackCount() int {
	count := 0
	for _, stream := range r.Streams {
		if stream.IsVisual() {
			count++
		}
	}
	return count
}

// PrimaryVisual returns the first visual stream.
func (r Result) PrimaryVisual() (Stream, bool) {
	for _, stream := range r.Streams {
		if stream.IsVisual() {
			return stream, true
		}
	}
	return Stream{}, false
}

// NaturalSize returns the coded dimensions of the first visual stream, or
// zeros when there is none.
func (r Result) NaturalSize() (width, height int) {
	stream, ok := r.PrimaryVisual()
	if !ok {
		return 0, 0
	}
	return stream.Width, stream.Height
}

// DurationSeconds returns the container duration in seconds. When the
// container omits it the first visual stream's duration is used. Unparseable
// values yield NaN; absent values yield 0.
func (r Result) DurationSeconds() float64 {
	if strings.TrimSpace(r.Format.Duration) != "" {
		return parseFloat(r.Format.Duration)
	}
	if stream, ok := r.PrimaryVisual(); ok {
		return parseFloat(stream.Duration)
	}
	return 0
}

// FrameRate returns the average frame rate of the first visual stream, or 0.
func (r Result) FrameRate() float64 {
	stream, ok := r.PrimaryVisual()
	if !ok {
		return 0
	}
	return parseRatio(stream.AvgFrameRate)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseRatio(value string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(value), "/")
	if !found {
		v := parseFloat(num)
		if math.IsNaN(v) {
			return 0
		}
		return v
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
