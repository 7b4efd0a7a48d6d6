package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 640, Height: 360, Disposition: Disposition{AttachedPic: 1}},
			{CodecType: "audio"},
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "30000/1001"},
			{CodecType: "video", Width: 1280, Height: 720},
		},
		Format: Format{Duration: "123.45", Size: "1000"},
	}
	if got := result.VisualTrackCount(); got != 2 {
		t.Fatalf("expected 2 visual tracks (cover art skipped), got %d", got)
	}
	if w, h := result.NaturalSize(); w != 1920 || h != 1080 {
		t.Fatalf("unexpected natural size %dx%d", w, h)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if fr := result.FrameRate(); math.Abs(fr-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate %v", fr)
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video", Duration: "4.5"}}}
	if result.DurationSeconds() != 4.5 {
		t.Fatalf("expected stream duration, got %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.VisualTrackCount() != 0 {
		t.Fatal("expected no visual tracks")
	}
	if w, h := result.NaturalSize(); w != 0 || h != 0 {
		t.Fatalf("expected zero size, got %dx%d", w, h)
	}
	if result.FrameRate() != 0 {
		t.Fatal("expected zero frame rate")
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	payload := `{"streams":[{"index":0,"codec_type":"video","width":320,"height":240}],"format":{"duration":"10.000000"}}`
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat <<'JSON'\n"+payload+"\nJSON\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), script, "clip.mov")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.VisualTrackCount() != 1 || result.DurationSeconds() != 10 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestInspectFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), script, "clip.txt"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), script, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
