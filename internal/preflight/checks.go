package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"regift/internal/config"
	"regift/internal/deps"
	"regift/internal/fileutil"
)

// MinFreeBytes is the free space below which the output check fails.
const MinFreeBytes = 64 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace fails when the filesystem holding path has less than
// minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := fileutil.FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (%d MiB free)", path, free>>20)
	if free < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need %d MiB", minBytes>>20)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates ffmpeg and ffprobe as configured.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckMedia(ctx, cfg.FFmpegBinary(), cfg.FFprobeBinary())
}
