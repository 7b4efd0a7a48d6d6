package main

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"regift/internal/config"
	"regift/internal/testsupport"
)

const probePayload = `{"streams":[{"index":0,"codec_type":"video","width":32,"height":24}],"format":{"duration":"10.000000"}}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	source     string
	baseDir    string
}

// setupCLITestEnv writes a config whose ffprobe reports a 10s 32x24 video
// and whose ffmpeg prints a fixed PNG frame for every request.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	fixtureDir := t.TempDir()
	fixture := filepath.Join(fixtureDir, "frame.png")
	testsupport.WritePNG(t, fixture, 32, 24, color.RGBA{G: 180, A: 255})

	cfg := testsupport.NewConfig(t,
		testsupport.WithFFprobeScript(fmt.Sprintf("echo '%s'\n", probePayload)),
		testsupport.WithFFmpegScript(fmt.Sprintf("cat %q\n", fixture)),
	)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)

	source := filepath.Join(base, "clip.mp4")
	testsupport.WriteFile(t, source, []byte("not really a movie"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, source: source, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...)...)
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
