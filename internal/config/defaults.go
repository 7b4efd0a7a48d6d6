package config

const (
	defaultConfigPath       = "~/.config/regift/config.toml"
	defaultLogDir           = "~/.local/share/regift/logs"
	defaultHistoryDB        = "~/.local/share/regift/history.db"
	defaultFrameCount       = 20
	defaultDelaySeconds     = 0.1
	defaultLoopCount        = 0
	defaultToleranceSeconds = 0.01
	defaultTimeoutSeconds   = 300
	defaultWorkers          = 4
	defaultMaxFrames        = 2000
	defaultColorTable       = "plan9"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultAPIBind          = "127.0.0.1:7490"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults. OutputDir is
// left empty so conversions fall back to the system temp directory.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Conversion: Conversion{
			FrameCount:       defaultFrameCount,
			DelaySeconds:     defaultDelaySeconds,
			LoopCount:        defaultLoopCount,
			ToleranceSeconds: defaultToleranceSeconds,
			TimeoutSeconds:   defaultTimeoutSeconds,
			Workers:          defaultWorkers,
			MaxFrames:        defaultMaxFrames,
			ColorTable:       defaultColorTable,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
