package config

import (
	"errors"
	"fmt"

	"regift/internal/timeplan"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	conv := c.Conversion
	if conv.FrameCount <= 0 {
		return errors.New("conversion.frame_count must be positive")
	}
	if conv.DelaySeconds < 0 {
		return errors.New("conversion.delay_seconds must be non-negative")
	}
	if conv.LoopCount < -1 {
		return errors.New("conversion.loop_count must be -1 (play once), 0 (forever), or positive")
	}
	if conv.ToleranceSeconds < 0 {
		return errors.New("conversion.tolerance_seconds must be non-negative")
	}
	if conv.TimeoutSeconds < 0 {
		return errors.New("conversion.timeout_seconds must be non-negative")
	}
	if conv.Workers < 1 {
		return errors.New("conversion.workers must be at least 1")
	}
	if conv.MaxFrames < 1 || conv.MaxFrames > timeplan.MaxFrames {
		return fmt.Errorf("conversion.max_frames must be between 1 and %d", timeplan.MaxFrames)
	}
	if conv.FrameCount > conv.MaxFrames {
		return errors.New("conversion.frame_count must not exceed conversion.max_frames")
	}
	if conv.MaxPixelSize < 0 {
		return errors.New("conversion.max_pixel_size must be non-negative")
	}
	switch conv.ColorTable {
	case "plan9", "websafe":
	default:
		return fmt.Errorf("conversion.color_table: unsupported value %q (want plan9 or websafe)", conv.ColorTable)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
