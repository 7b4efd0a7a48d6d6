package regift_test

import (
	"errors"
	"testing"

	"regift"
	"regift/internal/services"
)

func TestErrorKindMatchesMarkers(t *testing.T) {
	err := services.Wrap(regift.ErrTimeout, "extract", "wait", "deadline", nil)
	if !errors.Is(err, regift.ErrTimeout) {
		t.Fatalf("expected timeout marker")
	}
	if got := regift.ErrorKind(err); got != "timeout" {
		t.Fatalf("kind = %q", got)
	}
}

func TestSeconds(t *testing.T) {
	if got := regift.Seconds(1.5).Seconds(); got != 1.5 {
		t.Fatalf("Seconds(1.5) = %v", got)
	}
}

func TestRequestValidateThroughFacade(t *testing.T) {
	req := regift.Request{Source: "clip.mp4", FrameCount: 3, FrameRate: 10}
	if err := req.Validate(); !errors.Is(err, regift.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	req = regift.Request{Source: "clip.mp4", FrameRate: 10}
	if req.Mode() != regift.ModeFrameRate {
		t.Fatalf("mode = %q", req.Mode())
	}
}

func TestNewConverterRequiresCollaborators(t *testing.T) {
	if _, err := regift.NewConverter(regift.Options{}); err == nil {
		t.Fatal("expected error without collaborators")
	}
}
