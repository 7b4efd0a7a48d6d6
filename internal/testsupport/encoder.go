package testsupport

import (
	"errors"
	"image"
	"os"
	"sync"

	"regift/internal/assemble"
)

// EncoderCall is one method invocation observed by a RecordingEncoderFactory.
type EncoderCall struct {
	Op        string
	Path      string
	Image     image.Image
	Frame     assemble.FrameMeta
	Container assemble.ContainerMeta
}

// RecordingEncoderFactory hands out encoders that record every call. The
// staged file is created on Open and receives Payload on Finalize so the
// publish step has something to move.
type RecordingEncoderFactory struct {
	// FailOpen is returned from Open when set.
	FailOpen error
	// FailAppendAt makes the append with this zero-based index fail. Negative disables.
	FailAppendAt int
	// FailFinalize is returned from Finalize when set.
	FailFinalize error
	Payload      []byte

	mu    sync.Mutex
	calls []EncoderCall
}

// NewRecordingEncoderFactory returns a factory that never fails.
func NewRecordingEncoderFactory() *RecordingEncoderFactory {
	return &RecordingEncoderFactory{FailAppendAt: -1, Payload: []byte("GIF89a")}
}

func (f *RecordingEncoderFactory) record(call EncoderCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Open implements assemble.EncoderFactory.
func (f *RecordingEncoderFactory) Open(path string, expectedCount int) (assemble.Encoder, error) {
	f.record(EncoderCall{Op: "open", Path: path})
	if f.FailOpen != nil {
		return nil, f.FailOpen
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{factory: f, path: path, file: file}, nil
}

// Calls returns a copy of every recorded call.
func (f *RecordingEncoderFactory) Calls() []EncoderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EncoderCall(nil), f.calls...)
}

// Ops returns the recorded operation names in order.
func (f *RecordingEncoderFactory) Ops() []string {
	calls := f.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (f *RecordingEncoderFactory) Count(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Appended returns the recorded append calls.
func (f *RecordingEncoderFactory) Appended() []EncoderCall {
	var out []EncoderCall
	for _, c := range f.Calls() {
		if c.Op == "append" {
			out = append(out, c)
		}
	}
	return out
}

type recordingEncoder struct {
	factory  *RecordingEncoderFactory
	path     string
	file     *os.File
	appended int
	done     bool
}

func (e *recordingEncoder) SetContainerMetadata(meta assemble.ContainerMeta) {
	e.factory.record(EncoderCall{Op: "set_container", Path: e.path, Container: meta})
}

func (e *recordingEncoder) Append(img image.Image, meta assemble.FrameMeta) error {
	e.factory.record(EncoderCall{Op: "append", Path: e.path, Image: img, Frame: meta})
	if e.done {
		return errors.New("append after close")
	}
	index := e.appended
	e.appended++
	if e.factory.FailAppendAt >= 0 && index == e.factory.FailAppendAt {
		return errors.New("encoder rejected frame")
	}
	return nil
}

func (e *recordingEncoder) Finalize() error {
	e.factory.record(EncoderCall{Op: "finalize", Path: e.path})
	if e.done {
		return errors.New("finalize after close")
	}
	e.done = true
	if e.factory.FailFinalize != nil {
		_ = e.file.Close()
		return e.factory.FailFinalize
	}
	if _, err := e.file.Write(e.factory.Payload); err != nil {
		_ = e.file.Close()
		return err
	}
	return e.file.Close()
}

func (e *recordingEncoder) Abort() error {
	e.factory.record(EncoderCall{Op: "abort", Path: e.path})
	if e.done {
		return errors.New("abort after close")
	}
	e.done = true
	return e.file.Close()
}
