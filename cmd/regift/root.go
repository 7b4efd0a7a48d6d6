package main

import (
	"github.com/spf13/cobra"
)

// subcommands lists every top-level verb in help order.
var subcommands = []func(*commandContext) *cobra.Command{
	newConvertCommand,
	newHistoryCommand,
	newStatusCommand,
	newServeCommand,
	newLogsCommand,
	newConfigCommand,
}

func newRootCommand() *cobra.Command {
	var configFlag string
	state := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:   "regift",
		Short: "Turn spans of video into animated GIFs",
		Long: "regift samples frames from a video with ffmpeg and stitches them into an\n" +
			"animated GIF. Use convert for one-off jobs or serve to expose the HTTP API.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if shouldSkipConfig(cmd) {
			return nil
		}
		_, err := state.ensureConfig()
		return err
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config.toml (default: ~/.config/regift/config.toml)")

	for _, build := range subcommands {
		root.AddCommand(build(state))
	}
	return root
}
