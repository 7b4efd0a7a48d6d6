// Package gifenc implements the container encoder on top of image/gif.
//
// Frames are quantized into a fixed global palette as they arrive and held
// in memory; the file is written in one pass on Finalize.
package gifenc

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"math"
	"os"
	"time"

	"golang.org/x/image/draw"

	"regift/internal/assemble"
)

// Factory opens GIF encoders.
type Factory struct {
	// Dither enables Floyd-Steinberg error diffusion when quantizing.
	Dither bool
}

// NewFactory returns a factory with dithering enabled.
func NewFactory() Factory {
	return Factory{Dither: true}
}

// Open creates path exclusively and returns an encoder that writes to it.
func (f Factory) Open(path string, expectedCount int) (assemble.Encoder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if expectedCount < 0 {
		expectedCount = 0
	}
	return &Encoder{
		file:    file,
		dither:  f.Dither,
		palette: palette.Plan9,
		anim: gif.GIF{
			Image: make([]*image.Paletted, 0, expectedCount),
			Delay: make([]int, 0, expectedCount),
		},
	}, nil
}

// Encoder accumulates paletted frames for one GIF file.
type Encoder struct {
	file    *os.File
	dither  bool
	palette color.Palette
	size    image.Point
	anim    gif.GIF
	closed  bool
}

// SetContainerMetadata records the loop count and global palette.
func (e *Encoder) SetContainerMetadata(meta assemble.ContainerMeta) {
	e.anim.LoopCount = meta.LoopCount
	e.palette = paletteFor(meta.ColorTable)
}

// Append scales img to the frame bounds and quantizes it into the global palette.
func (e *Encoder) Append(img image.Image, meta assemble.FrameMeta) error {
	if e.closed {
		return errors.New("gifenc: append after close")
	}
	src := img.Bounds()
	if src.Empty() {
		return errors.New("gifenc: empty frame")
	}
	if len(e.anim.Image) > 0 && len(e.anim.Image[0].Palette) != len(e.palette) {
		return errors.New("gifenc: palette changed after first frame")
	}

	target := e.size
	if target == (image.Point{}) {
		target = fitWithin(src.Size(), meta.MaxPixelSize)
		e.size = target
	}
	dst := image.Rect(0, 0, target.X, target.Y)

	var scaled image.Image = img
	if src.Size() != target {
		rgba := image.NewRGBA(dst)
		draw.CatmullRom.Scale(rgba, dst, img, src, draw.Src, nil)
		scaled = rgba
	}

	frame := image.NewPaletted(dst, e.palette)
	if e.dither {
		draw.FloydSteinberg.Draw(frame, dst, scaled, scaled.Bounds().Min)
	} else {
		draw.Draw(frame, dst, scaled, scaled.Bounds().Min, draw.Src)
	}

	e.anim.Image = append(e.anim.Image, frame)
	e.anim.Delay = append(e.anim.Delay, DelayHundredths(meta.Delay))
	e.anim.Disposal = append(e.anim.Disposal, gif.DisposalNone)
	return nil
}

// Finalize writes the GIF and closes the file.
func (e *Encoder) Finalize() error {
	if e.closed {
		return errors.New("gifenc: finalize after close")
	}
	e.closed = true
	e.anim.Config = image.Config{ColorModel: e.palette, Width: e.size.X, Height: e.size.Y}

	w := bufio.NewWriter(e.file)
	if err := gif.EncodeAll(w, &e.anim); err != nil {
		_ = e.file.Close()
		return fmt.Errorf("gifenc: encode: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = e.file.Close()
		return fmt.Errorf("gifenc: flush: %w", err)
	}
	if err := e.file.Sync(); err != nil {
		_ = e.file.Close()
		return fmt.Errorf("gifenc: sync: %w", err)
	}
	e.anim = gif.GIF{}
	return e.file.Close()
}

// Abort drops buffered frames and closes the file. Removing it is the
// caller's job.
func (e *Encoder) Abort() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.anim = gif.GIF{}
	return e.file.Close()
}

// DelayHundredths converts a frame delay to GIF's 1/100 s units, rounding to
// the nearest unit.
func DelayHundredths(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(float64(d) / float64(10*time.Millisecond)))
}

// fitWithin scales size down so its longer edge is at most limit, keeping
// the aspect ratio. A non-positive limit leaves size unchanged.
func fitWithin(size image.Point, limit int) image.Point {
	longest := max(size.X, size.Y)
	if limit <= 0 || longest <= limit {
		return size
	}
	scale := float64(limit) / float64(longest)
	return image.Point{
		X: max(1, int(math.Round(float64(size.X)*scale))),
		Y: max(1, int(math.Round(float64(size.Y)*scale))),
	}
}

func paletteFor(table assemble.ColorTable) color.Palette {
	if table == assemble.ColorTableWebSafe {
		return palette.WebSafe
	}
	return palette.Plan9
}
