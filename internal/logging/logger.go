package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"regift/internal/config"
)

// FileName is the log file written under paths.log_dir.
const FileName = "regift.log"

// Options controls how New builds a logger.
type Options struct {
	Level  string // debug, info, warn or error; anything else means info
	Format string // console (default) or json
	// LogFile, when set, receives a copy of every line written to stderr.
	LogFile string
	// Writer replaces stderr and LogFile entirely. Tests use it to capture output.
	Writer io.Writer
}

// New builds a slog logger. Debug level also turns on caller information.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(levelFor(opts.Level))
	withSource := level.Level() <= slog.LevelDebug

	out := opts.Writer
	if out == nil {
		var err error
		if out, err = sinkFor(opts.LogFile); err != nil {
			return nil, err
		}
	}

	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		return slog.New(newPrettyHandler(out, level, withSource)), nil
	case "json":
		return slog.New(newJSONHandler(out, level, withSource)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig builds the logger for a loaded config. Output always goes to
// stderr, keeping stdout free for command results, and is mirrored into
// paths.log_dir when one is configured.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Paths.LogDir != "" {
		opts.LogFile = filepath.Join(cfg.Paths.LogDir, FileName)
	}
	return New(opts)
}

func levelFor(name string) slog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func sinkFor(logFile string) (io.Writer, error) {
	logFile = strings.TrimSpace(logFile)
	if logFile == "" {
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", logFile, err)
	}
	return io.MultiWriter(os.Stderr, file), nil
}
