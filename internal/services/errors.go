package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error kind markers. Every error returned by a conversion wraps exactly one
// of these so callers can branch with errors.Is.
var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrSourceFormatInvalid    = errors.New("source format invalid")
	ErrDestinationUnavailable = errors.New("destination unavailable")
	ErrFrameExtractionFailed  = errors.New("frame extraction failed")
	ErrEncodeAppendFailed     = errors.New("encode append failed")
	ErrEncodeFinalizeFailed   = errors.New("encode finalize failed")
	ErrTimeout                = errors.New("timeout")
	ErrCanceled               = errors.New("canceled")
)

var kindNames = []struct {
	marker error
	name   string
}{
	{ErrInvalidRequest, "invalid_request"},
	{ErrSourceFormatInvalid, "source_format_invalid"},
	{ErrDestinationUnavailable, "destination_unavailable"},
	{ErrFrameExtractionFailed, "frame_extraction_failed"},
	{ErrEncodeAppendFailed, "encode_append_failed"},
	{ErrEncodeFinalizeFailed, "encode_finalize_failed"},
	{ErrTimeout, "timeout"},
	{ErrCanceled, "canceled"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFrameExtractionFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FromContext converts a context error into the matching marker.
// Deadline expiry becomes ErrTimeout; cancellation becomes ErrCanceled.
func FromContext(stage, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrTimeout, stage, operation, "deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return Wrap(ErrCanceled, stage, operation, "operation canceled", err)
	default:
		return err
	}
}

// Kind returns the snake_case name of the marker carried by err, "" for nil,
// and "unknown" when no marker is present.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "unknown"
}

// Kinds lists every marker name in declaration order.
func Kinds() []string {
	out := make([]string, 0, len(kindNames))
	for _, k := range kindNames {
		out = append(out, k.name)
	}
	return out
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}
