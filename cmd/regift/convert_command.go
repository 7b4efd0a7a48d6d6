package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"regift/internal/config"
	"regift/internal/convert"
	"regift/internal/services"
	"regift/internal/timeplan"
)

type convertOptions struct {
	output     string
	frames     int
	delay      float64
	fps        int
	start      float64
	duration   float64
	points     []float64
	loop       int
	maxSize    int
	timeout    time.Duration
	jsonOutput bool
	noProgress bool
}

type convertResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <source>",
		Short: "Convert a span of a video into an animated GIF",
		Long: `Sample frames from a video and assemble them into a GIF.

Pick at most one sampling mode: --frames (spread evenly, shown --delay seconds
apart), --fps (frames per second of source time), or --points (explicit
timestamps in seconds). With none given the configured frame count is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			conv, err := convert.NewFromConfig(cfg, store, nil, logger)
			if err != nil {
				return err
			}

			req := buildConvertRequest(cmd, opts, cfg, args[0])
			var bar *progressBar
			if !opts.jsonOutput && !opts.noProgress && shouldColorize(cmd.ErrOrStderr()) {
				bar = newProgressBar(cmd.ErrOrStderr(), "Converting")
				req.Progress = bar.Set
			}

			runCtx := baseContext(cmd)

			started := time.Now()
			path, convErr := conv.Convert(runCtx, req)
			bar.Finish(convErr == nil)

			if opts.jsonOutput {
				result := convertResult{
					Source:      req.Source,
					Destination: path,
					ElapsedMS:   time.Since(started).Milliseconds(),
				}
				if convErr != nil {
					result.ErrorKind = services.Kind(convErr)
					result.Error = convErr.Error()
				}
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
				return convErr
			}
			if convErr != nil {
				return fmt.Errorf("convert %s: %w", req.Source, convErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Destination GIF path (default: <output_dir>/<source>.gif)")
	flags.IntVarP(&opts.frames, "frames", "n", 0, "Number of frames spread across the span")
	flags.Float64VarP(&opts.delay, "delay", "d", 0, "Seconds each frame is shown (frame count mode)")
	flags.IntVar(&opts.fps, "fps", 0, "Frames sampled per second of source time")
	flags.Float64Var(&opts.start, "start", 0, "Span start in seconds")
	flags.Float64Var(&opts.duration, "duration", 0, "Span length in seconds (default: to the end)")
	flags.Float64SliceVar(&opts.points, "points", nil, "Explicit sample timestamps in seconds, comma separated")
	flags.IntVar(&opts.loop, "loop", 0, "Loop count: 0 loops forever, -1 plays once (default from config)")
	flags.IntVar(&opts.maxSize, "max-size", 0, "Longest output edge in pixels (default from config, then source size)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Abort the conversion after this long (default from config)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// buildConvertRequest maps flags onto a request. Unset sampling flags fall
// back to the configured frame count; an unset --loop uses the configured
// loop count.
func buildConvertRequest(cmd *cobra.Command, opts convertOptions, cfg *config.Config, source string) convert.Request {
	req := convert.Request{
		Source:       strings.TrimSpace(source),
		Destination:  strings.TrimSpace(opts.output),
		FrameCount:   opts.frames,
		FrameRate:    opts.fps,
		Start:        timeplan.FromSeconds(opts.start),
		Duration:     timeplan.FromSeconds(opts.duration),
		LoopCount:    cfg.Conversion.LoopCount,
		MaxPixelSize: opts.maxSize,
		Timeout:      opts.timeout,
	}
	if opts.delay != 0 {
		req.Delay = time.Duration(opts.delay * float64(time.Second))
	}
	for _, p := range opts.points {
		req.TimePoints = append(req.TimePoints, timeplan.FromSeconds(p))
	}
	if cmd.Flags().Changed("loop") {
		req.LoopCount = opts.loop
	}
	if req.FrameCount == 0 && req.FrameRate == 0 && len(req.TimePoints) == 0 {
		req.FrameCount = cfg.Conversion.FrameCount
	}
	return req
}

func baseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
