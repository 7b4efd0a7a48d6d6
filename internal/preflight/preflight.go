package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"regift/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll checks the output location, the log and history directories, free
// space for output, and the media binaries.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	outputDir := strings.TrimSpace(cfg.Paths.OutputDir)
	outputName := "Output directory"
	if outputDir == "" {
		outputDir = os.TempDir()
		outputName = "Output directory (temp)"
	}

	results := []Result{
		CheckDirectoryAccess(outputName, outputDir),
		CheckFreeSpace("Output free space", outputDir, MinFreeBytes),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: depDetail(status.Command, status.Version, status.Detail)})
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func depDetail(command, version, detail string) string {
	switch {
	case detail != "":
		return detail
	case version != "":
		return command + " (" + version + ")"
	default:
		return command
	}
}
