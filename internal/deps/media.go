package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// MediaRequirements lists ffmpeg for frame extraction and ffprobe for
// source inspection.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Extracts still frames"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Inspects source duration and tracks"},
	}
}

// CheckMedia checks both media binaries and fills in their reported version.
func CheckMedia(ctx context.Context, ffmpegBinary, ffprobeBinary string) []Status {
	statuses := CheckBinaries(MediaRequirements(ffmpegBinary, ffprobeBinary))
	for i := range statuses {
		if statuses[i].Available {
			statuses[i].Version = Version(ctx, statuses[i].Command)
		}
	}
	return statuses
}

// Version runs "<binary> -version" and returns the version token from the
// first line ("ffmpeg version 7.1 Copyright ..." yields "7.1"). It returns ""
// when the binary fails or prints something else.
func Version(ctx context.Context, binary string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return ""
	}
	fields := strings.Fields(scanner.Text())
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}
