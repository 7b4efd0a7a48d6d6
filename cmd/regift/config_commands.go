package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"regift/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := writeSampleConfig(targetPath, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file (default ~/.config/regift/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// writeSampleConfig resolves target (empty means the default location) and
// writes the embedded sample there, refusing to clobber unless overwrite.
func writeSampleConfig(target string, overwrite bool) (string, error) {
	var err error
	if target = strings.TrimSpace(target); target == "" {
		target, err = config.DefaultConfigPath()
	} else {
		target, err = config.ExpandPath(target)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	if !overwrite {
		_, statErr := os.Stat(target)
		switch {
		case statErr == nil:
			return "", fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		case !errors.Is(statErr, fs.ErrNotExist):
			return "", fmt.Errorf("check config path: %w", statErr)
		}
	}
	if err := config.CreateSample(target); err != nil {
		return "", err
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and print the effective settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			source := path
			if !exists {
				source = path + " (not found, defaults used)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)
			fmt.Fprintln(out, renderTable([]column{{title: "Setting"}, {title: "Value"}}, effectiveSettings(cfg)))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func effectiveSettings(cfg *config.Config) [][]string {
	outputDir := cfg.Paths.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir() + " (system temp)"
	}
	token := "not set"
	if cfg.API.Token != "" {
		token = "set"
	}
	conv := cfg.Conversion
	return [][]string{
		{"paths.output_dir", outputDir},
		{"paths.log_dir", cfg.Paths.LogDir},
		{"paths.history_db", cfg.Paths.HistoryDB},
		{"conversion.frame_count", strconv.Itoa(conv.FrameCount)},
		{"conversion.delay", conv.Delay().String()},
		{"conversion.loop_count", strconv.Itoa(conv.LoopCount)},
		{"conversion.timeout", conv.Timeout().String()},
		{"conversion.workers", strconv.Itoa(conv.Workers)},
		{"conversion.max_frames", strconv.Itoa(conv.MaxFrames)},
		{"conversion.color_table", conv.ColorTable},
		{"ffmpeg.ffmpeg_binary", cfg.FFmpegBinary()},
		{"ffmpeg.ffprobe_binary", cfg.FFprobeBinary()},
		{"api.bind", cfg.API.Bind},
		{"api.token", token},
		{"logging", cfg.Logging.Format + "/" + cfg.Logging.Level},
	}
}
