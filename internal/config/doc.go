// Package config loads, normalizes, and validates regift configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), overlays an optional .env file, reads TOML files, and honours
// environment fallbacks such as REGIFT_FFMPEG. The Config type centralizes
// every knob the CLI and API server need so conversions, history, and logging
// are configured in one pass.
package config
