package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"regift/internal/config"
	"regift/internal/logging"
	"regift/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("written to file")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "regift.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "written to file") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "extract")
	ctx := services.WithConversionID(context.Background(), "3f2a9c1d-0000-4000-8000-000000000000")
	logging.WithContext(ctx, logger).Info("frame batch complete", logging.Int(logging.FieldFrameCount, 20), logging.String("source", "my clip.mov"))
	logger.Debug("hidden at info level")

	line := buf.String()
	for _, want := range []string{"INFO [extract]", "conversion 3f2a9c1d", "frame batch complete", "frame_count=20", `source="my clip.mov"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
	if strings.Contains(line, "hidden at info level") {
		t.Fatal("debug line should be filtered")
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller in debug output, got %q", buf.String())
	}
}

func TestJSONLoggerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "frame batch aborted", "extract_batch_aborted", logging.Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json line %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" || entry["msg"] != "frame batch aborted" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
	if entry[logging.FieldEventType] != "extract_batch_aborted" {
		t.Fatalf("expected event_type, got %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] == nil || entry[logging.FieldImpact] == nil {
		t.Fatalf("expected default hint and impact, got %v", entry)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithConversionID(context.Background(), "abc")
	ctx = services.WithStage(ctx, "extract")
	ctx = services.WithRequestID(ctx, "req-1")

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.Value.String()
	}
	if got[logging.FieldConversionID] != "abc" || got[logging.FieldStage] != "extract" || got[logging.FieldCorrelationID] != "req-1" {
		t.Fatalf("unexpected context fields %v", got)
	}
	if logging.WithContext(context.Background(), nil) == nil {
		t.Fatal("expected nop logger for nil input")
	}
}
