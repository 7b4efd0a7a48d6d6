package assemble

import (
	"image"
	"time"
)

// ColorTable names the fixed global palette written into the container.
type ColorTable string

const (
	ColorTablePlan9   ColorTable = "plan9"
	ColorTableWebSafe ColorTable = "websafe"
)

// ContainerMeta is file-level metadata. LoopCount is passed to the encoder
// unchanged: 0 repeats forever, -1 plays once, n repeats n more times.
type ContainerMeta struct {
	LoopCount  int
	ColorTable ColorTable
}

// FrameMeta is applied to each appended frame.
type FrameMeta struct {
	Delay time.Duration
	// MaxPixelSize bounds the longer edge of the encoded frame. Zero keeps
	// the frame's size.
	MaxPixelSize int
}

// Encoder is a single-writer, append-only container. Exactly one of
// Finalize or Abort is called, and nothing is called afterwards.
type Encoder interface {
	SetContainerMetadata(meta ContainerMeta)
	Append(img image.Image, meta FrameMeta) error
	Finalize() error
	Abort() error
}

// EncoderFactory opens an encoder writing to path. expectedCount is a
// capacity hint, not a limit.
type EncoderFactory interface {
	Open(path string, expectedCount int) (Encoder, error)
}

// EncoderFactoryFunc adapts a function to EncoderFactory.
type EncoderFactoryFunc func(path string, expectedCount int) (Encoder, error)

func (f EncoderFactoryFunc) Open(path string, expectedCount int) (Encoder, error) {
	return f(path, expectedCount)
}
