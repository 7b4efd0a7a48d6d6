package assemble_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"regift/internal/assemble"
	"regift/internal/services"
	"regift/internal/testsupport"
)

func frames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = testsupport.SolidImage(i+1, 1, color.White)
	}
	return out
}

func opts(dest string, count int) assemble.Options {
	return assemble.Options{
		Destination:   dest,
		ExpectedCount: count,
		Container:     assemble.ContainerMeta{LoopCount: 0, ColorTable: assemble.ColorTablePlan9},
		Frame:         assemble.FrameMeta{Delay: 200 * time.Millisecond, MaxPixelSize: 320},
	}
}

func assertNoStagedFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".partial") {
			t.Fatalf("staged file left behind: %s", e.Name())
		}
	}
}

func TestAssembleAppendsInOrderAndPublishes(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.gif")
	factory := testsupport.NewRecordingEncoderFactory()

	path, err := assemble.New(factory, nil).Assemble(context.Background(), frames(5), opts(dest, 5))
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if path != dest {
		t.Fatalf("path = %q, want %q", path, dest)
	}
	want := []string{"open", "set_container", "append", "append", "append", "append", "append", "set_container", "finalize"}
	if got := factory.Ops(); !slices.Equal(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i, call := range factory.Appended() {
		if call.Image.Bounds().Dx() != i+1 {
			t.Fatalf("append %d received frame %d", i, call.Image.Bounds().Dx()-1)
		}
		if call.Frame.Delay != 200*time.Millisecond || call.Frame.MaxPixelSize != 320 {
			t.Fatalf("unexpected frame meta %+v", call.Frame)
		}
	}
	for _, call := range factory.Calls() {
		if call.Op == "set_container" && call.Container.LoopCount != 0 {
			t.Fatalf("loop count must pass through unchanged, got %d", call.Container.LoopCount)
		}
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "GIF89a" {
		t.Fatalf("expected published payload, got %q (%v)", data, err)
	}
	assertNoStagedFiles(t, dir)
}

func TestAssembleStagesBesideDestination(t *testing.T) {
	dir := t.TempDir()
	factory := testsupport.NewRecordingEncoderFactory()
	if _, err := assemble.New(factory, nil).Assemble(context.Background(), frames(1), opts(filepath.Join(dir, "a.gif"), 1)); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	staged := factory.Calls()[0].Path
	if filepath.Dir(staged) != dir || !strings.HasPrefix(filepath.Base(staged), ".a.gif.") {
		t.Fatalf("unexpected staged path %q", staged)
	}
}

func TestAssembleAppendFailureAborts(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.gif")
	factory := testsupport.NewRecordingEncoderFactory()
	factory.FailAppendAt = 2

	_, err := assemble.New(factory, nil).Assemble(context.Background(), frames(5), opts(dest, 5))
	if !errors.Is(err, services.ErrEncodeAppendFailed) {
		t.Fatalf("expected ErrEncodeAppendFailed, got %v", err)
	}
	if factory.Count("finalize") != 0 || factory.Count("abort") != 1 {
		t.Fatalf("expected a single abort and no finalize, got %v", factory.Ops())
	}
	if factory.Count("append") != 3 {
		t.Fatalf("appends must stop at the failure, got %d", factory.Count("append"))
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("destination must not exist after failure: %v", err)
	}
	assertNoStagedFiles(t, dir)
}

func TestAssembleFinalizeFailureIsDistinct(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.gif")
	factory := testsupport.NewRecordingEncoderFactory()
	factory.FailFinalize = errors.New("disk full")

	_, err := assemble.New(factory, nil).Assemble(context.Background(), frames(3), opts(dest, 3))
	if !errors.Is(err, services.ErrEncodeFinalizeFailed) {
		t.Fatalf("expected ErrEncodeFinalizeFailed, got %v", err)
	}
	if errors.Is(err, services.ErrEncodeAppendFailed) {
		t.Fatal("finalize failure must not look like an append failure")
	}
	if factory.Count("finalize") != 1 || factory.Count("abort") != 0 {
		t.Fatalf("expected exactly one finalize and no abort, got %v", factory.Ops())
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("destination must not exist after finalize failure: %v", err)
	}
	assertNoStagedFiles(t, dir)
}

func TestAssembleKeepsPreviousFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.gif")
	testsupport.WriteFile(t, dest, []byte("previous"))
	factory := testsupport.NewRecordingEncoderFactory()
	factory.FailAppendAt = 0

	if _, err := assemble.New(factory, nil).Assemble(context.Background(), frames(2), opts(dest, 2)); err == nil {
		t.Fatal("expected failure")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "previous" {
		t.Fatalf("previous artifact was modified: %q", data)
	}
}

func TestBeginDestinationErrors(t *testing.T) {
	factory := testsupport.NewRecordingEncoderFactory()
	a := assemble.New(factory, nil)

	blocker := filepath.Join(t.TempDir(), "file")
	testsupport.WriteFile(t, blocker, nil)
	if _, err := a.Begin(context.Background(), opts(filepath.Join(blocker, "out.gif"), 1)); !errors.Is(err, services.ErrDestinationUnavailable) {
		t.Fatalf("expected ErrDestinationUnavailable under a file, got %v", err)
	}
	if _, err := a.Begin(context.Background(), opts(t.TempDir(), 1)); !errors.Is(err, services.ErrDestinationUnavailable) {
		t.Fatalf("expected ErrDestinationUnavailable for directory destination, got %v", err)
	}
	if _, err := a.Begin(context.Background(), opts(" ", 1)); !errors.Is(err, services.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty destination, got %v", err)
	}

	factory.FailOpen = errors.New("permission denied")
	dir := t.TempDir()
	if _, err := a.Begin(context.Background(), opts(filepath.Join(dir, "out.gif"), 1)); !errors.Is(err, services.ErrDestinationUnavailable) {
		t.Fatalf("expected ErrDestinationUnavailable when open fails, got %v", err)
	}
	assertNoStagedFiles(t, dir)
}

func TestBeginWaitsForDestinationLock(t *testing.T) {
	dir := t.TempDir()
	lockDir := t.TempDir()
	dest := filepath.Join(dir, "out.gif")
	held := flock.New(assemble.LockPath(lockDir, dest))
	if ok, err := held.TryLock(); !ok || err != nil {
		t.Fatalf("pre-lock: %v", err)
	}
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	a := assemble.New(testsupport.NewRecordingEncoderFactory(), nil).WithLockDir(lockDir)
	_, err := a.Begin(ctx, opts(dest, 1))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout while the destination is locked, got %v", err)
	}
}

func TestSessionCloseIsIdempotentAndAbortsOnce(t *testing.T) {
	dir := t.TempDir()
	factory := testsupport.NewRecordingEncoderFactory()
	session, err := assemble.New(factory, nil).Begin(context.Background(), opts(filepath.Join(dir, "out.gif"), 2))
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if err := session.Append(frames(1)[0], assemble.FrameMeta{Delay: time.Second}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if _, err := session.Commit(); !errors.Is(err, services.ErrEncodeFinalizeFailed) {
		t.Fatalf("Commit after Close should fail, got %v", err)
	}
	if err := session.Append(frames(1)[0], assemble.FrameMeta{}); !errors.Is(err, services.ErrEncodeAppendFailed) {
		t.Fatalf("Append after Close should fail, got %v", err)
	}
	if factory.Count("abort") != 1 || factory.Count("finalize") != 0 {
		t.Fatalf("expected one abort, got %v", factory.Ops())
	}
	assertNoStagedFiles(t, dir)
}

func TestSessionCommitAfterFailedAppendAborts(t *testing.T) {
	factory := testsupport.NewRecordingEncoderFactory()
	factory.FailAppendAt = 0
	session, err := assemble.New(factory, nil).Begin(context.Background(), opts(filepath.Join(t.TempDir(), "out.gif"), 1))
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	defer session.Close()
	if err := session.Append(frames(1)[0], assemble.FrameMeta{}); err == nil {
		t.Fatal("expected append failure")
	}
	if _, err := session.Commit(); !errors.Is(err, services.ErrEncodeAppendFailed) {
		t.Fatalf("expected append error from Commit, got %v", err)
	}
	if factory.Count("finalize") != 0 || factory.Count("abort") != 1 {
		t.Fatalf("expected abort without finalize, got %v", factory.Ops())
	}
}

func TestSessionRejectsNilImage(t *testing.T) {
	factory := testsupport.NewRecordingEncoderFactory()
	session, err := assemble.New(factory, nil).Begin(context.Background(), opts(filepath.Join(t.TempDir(), "out.gif"), 1))
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	defer session.Close()
	if err := session.Append(nil, assemble.FrameMeta{}); !errors.Is(err, services.ErrEncodeAppendFailed) {
		t.Fatalf("expected ErrEncodeAppendFailed, got %v", err)
	}
	if session.Appended() != 0 {
		t.Fatalf("expected no committed frames, got %d", session.Appended())
	}
}

func TestAssembleCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	factory := testsupport.NewRecordingEncoderFactory()
	_, err := assemble.New(factory, nil).Assemble(ctx, frames(2), opts(filepath.Join(t.TempDir(), "out.gif"), 2))
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if factory.Count("finalize") != 0 {
		t.Fatal("finalize must not run after cancellation")
	}
}

func TestAssembleLeavesOnlyTheGIFInOutputDir(t *testing.T) {
	dir := t.TempDir()
	lockDir := filepath.Join(t.TempDir(), "locks")
	factory := testsupport.NewRecordingEncoderFactory()
	a := assemble.New(factory, nil).WithLockDir(lockDir)

	if _, err := a.Assemble(context.Background(), frames(2), opts(filepath.Join(dir, "out.gif"), 2)); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	factory.FailAppendAt = 0
	if _, err := a.Assemble(context.Background(), frames(2), opts(filepath.Join(dir, "failed.gif"), 2)); err == nil {
		t.Fatal("expected append failure")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if !slices.Equal(names, []string{"out.gif"}) {
		t.Fatalf("output dir holds %v, want only out.gif", names)
	}
	if _, err := os.Stat(assemble.LockPath(lockDir, filepath.Join(dir, "out.gif"))); err != nil {
		t.Fatalf("expected lock file under lock dir: %v", err)
	}
}

func TestLockPathIsStablePerDestination(t *testing.T) {
	a := assemble.LockPath("/locks", "/media/out.gif")
	if a != assemble.LockPath("/locks", "/media/out.gif") {
		t.Fatal("lock path must be deterministic")
	}
	if a == assemble.LockPath("/locks", "/media/other.gif") {
		t.Fatal("different destinations must not share a lock")
	}
	if filepath.Dir(a) != "/locks" || !strings.HasSuffix(a, ".lock") {
		t.Fatalf("unexpected lock path %q", a)
	}
}
