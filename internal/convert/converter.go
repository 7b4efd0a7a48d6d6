package convert

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"regift/internal/assemble"
	"regift/internal/config"
	"regift/internal/extract"
	"regift/internal/history"
	"regift/internal/logging"
	"regift/internal/media/ffmpeg"
	"regift/internal/media/gifenc"
	"regift/internal/media/source"
	"regift/internal/metrics"
	"regift/internal/services"
	"regift/internal/timeplan"
)

const defaultDelay = 100 * time.Millisecond

// SourceOpener turns a request's source path into an extraction asset.
type SourceOpener interface {
	Open(ctx context.Context, path string) (extract.Asset, error)
}

// SourceOpenerFunc adapts a function to SourceOpener.
type SourceOpenerFunc func(ctx context.Context, path string) (extract.Asset, error)

func (f SourceOpenerFunc) Open(ctx context.Context, path string) (extract.Asset, error) {
	return f(ctx, path)
}

// ProbeOpener opens sources with ffprobe.
func ProbeOpener(ffprobeBinary string) SourceOpener {
	return SourceOpenerFunc(func(ctx context.Context, path string) (extract.Asset, error) {
		asset, err := source.Open(ctx, ffprobeBinary, path)
		if err != nil {
			return nil, err
		}
		return asset, nil
	})
}

// Recorder persists conversion history. *history.Store implements it.
type Recorder interface {
	Begin(ctx context.Context, rec history.Record) error
	Finish(ctx context.Context, id string, out history.Outcome) error
}

// Defaults fill request fields left at their zero value.
type Defaults struct {
	Delay        time.Duration
	Tolerance    timeplan.Tolerance
	Timeout      time.Duration
	MaxPixelSize int
	ColorTable   assemble.ColorTable
	OutputDir    string
	// MaxFrames caps every plan. Zero means timeplan.MaxFrames.
	MaxFrames int
}

// DefaultsFromConfig maps the [conversion] and [paths] sections.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	if cfg == nil {
		return Defaults{}
	}
	conv := cfg.Conversion
	return Defaults{
		Delay:        conv.Delay(),
		Tolerance:    timeplan.Symmetric(timeplan.FromDuration(conv.Tolerance())),
		Timeout:      conv.Timeout(),
		MaxPixelSize: conv.MaxPixelSize,
		ColorTable:   assemble.ColorTable(conv.ColorTable),
		OutputDir:    cfg.Paths.OutputDir,
		MaxFrames:    conv.MaxFrames,
	}
}

// Options wires a Converter's collaborators. Sources, Frames, and Encoders
// are required; History and Metrics are optional.
type Options struct {
	Sources  SourceOpener
	Frames   extract.FrameSource
	Encoders assemble.EncoderFactory
	History  Recorder
	Metrics  *metrics.Metrics
	Defaults Defaults
	// LockDir holds destination lock files; blank means assemble.DefaultLockDir.
	LockDir string
	Logger  *slog.Logger
}

// Converter runs conversions. It holds no per-conversion state and is safe
// for concurrent use.
type Converter struct {
	sources     SourceOpener
	coordinator *extract.Coordinator
	assembler   *assemble.Assembler
	history     Recorder
	metrics     *metrics.Metrics
	defaults    Defaults
	logger      *slog.Logger
}

// New builds a Converter from explicit collaborators.
func New(opts Options) (*Converter, error) {
	switch {
	case opts.Sources == nil:
		return nil, errors.New("convert: source opener is required")
	case opts.Frames == nil:
		return nil, errors.New("convert: frame source is required")
	case opts.Encoders == nil:
		return nil, errors.New("convert: encoder factory is required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "convert")
	defaults := opts.Defaults
	if defaults.Delay <= 0 {
		defaults.Delay = defaultDelay
	}
	if defaults.Tolerance == (timeplan.Tolerance{}) {
		defaults.Tolerance = timeplan.DefaultTolerance
	}
	if defaults.ColorTable == "" {
		defaults.ColorTable = assemble.ColorTablePlan9
	}
	return &Converter{
		sources:     opts.Sources,
		coordinator: extract.NewCoordinator(opts.Frames, opts.Logger),
		assembler:   assemble.New(opts.Encoders, opts.Logger).WithLockDir(opts.LockDir),
		history:     opts.History,
		metrics:     opts.Metrics,
		defaults:    defaults,
		logger:      logger,
	}, nil
}

// NewFromConfig wires the ffprobe opener, the ffmpeg frame source, and the
// GIF encoder from configuration. store and m may be nil.
func NewFromConfig(cfg *config.Config, store *history.Store, m *metrics.Metrics, logger *slog.Logger) (*Converter, error) {
	if cfg == nil {
		return nil, errors.New("convert: config is required")
	}
	opts := Options{
		Sources: ProbeOpener(cfg.FFprobeBinary()),
		Frames: ffmpeg.New(ffmpeg.Options{
			Binary:  cfg.FFmpegBinary(),
			Workers: cfg.Conversion.Workers,
			Logger:  logger,
		}),
		Encoders: gifenc.NewFactory(),
		Metrics:  m,
		Defaults: DefaultsFromConfig(cfg),
		LockDir:  cfg.LockDir(),
		Logger:   logger,
	}
	if store != nil {
		opts.History = store
	}
	return New(opts)
}

// Convert runs req to completion and returns the published GIF path.
func (c *Converter) Convert(ctx context.Context, req Request) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	ctx = services.WithConversionID(ctx, id)
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	c.metrics.ConversionStarted()
	c.begin(ctx, logger, id, req, started)

	res, err := c.run(ctx, logger, req)
	elapsed := time.Since(started)

	kind := services.Kind(err)
	c.metrics.ObserveConversion(kind, elapsed)
	c.metrics.AddFrames(res.appended)
	c.finish(ctx, logger, id, res, err)

	if err != nil {
		attrs := []logging.Attr{
			logging.String("source", req.Source),
			logging.String(logging.FieldErrorKind, kind),
			logging.Int("appended", res.appended),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		}
		if errors.Is(err, services.ErrCanceled) {
			logger.Info("conversion canceled", logging.Args(attrs...)...)
		} else {
			logging.WarnWithContext(logger, "conversion failed", "conversion_failed",
				append(attrs, logging.String(logging.FieldErrorHint, hintFor(err)))...)
		}
		return "", err
	}
	logger.Info("conversion complete",
		logging.String("destination", res.path),
		logging.Int(logging.FieldFrameCount, res.appended),
		logging.Duration("elapsed", elapsed),
	)
	return res.path, nil
}

// ConvertAsync runs Convert on a new goroutine and calls completion exactly
// once with its result. Progress callbacks run on that goroutine too.
func (c *Converter) ConvertAsync(ctx context.Context, req Request, completion func(path string, err error)) {
	go func() {
		path, err := c.Convert(ctx, req)
		if completion != nil {
			completion(path, err)
		}
	}()
}

type runResult struct {
	path        string
	destination string
	planned     int
	appended    int
}

func (c *Converter) run(ctx context.Context, logger *slog.Logger, req Request) (runResult, error) {
	var res runResult
	if err := req.Validate(); err != nil {
		return res, err
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.defaults.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	asset, err := c.sources.Open(services.WithStage(ctx, "probe"), req.Source)
	if err != nil {
		if services.Kind(err) == "unknown" {
			err = services.Wrap(services.ErrSourceFormatInvalid, "convert", "open source", req.Source, err)
		}
		return res, err
	}
	if asset.VisualTrackCount() < 1 {
		return res, services.Wrap(services.ErrSourceFormatInvalid, "convert", "inspect source", "source has no visual track", nil)
	}

	plan, err := buildPlan(req, asset, c.defaults.Delay, c.defaults.MaxFrames)
	if err != nil {
		return res, err
	}
	res.planned = len(plan.times)
	if plan.mode == ModeFrameRate {
		warnAboveSourceRate(logger, asset, req.FrameRate)
	}
	dimension, err := maxDimension(req.MaxPixelSize, c.defaults.MaxPixelSize, asset)
	if err != nil {
		return res, err
	}
	res.destination = resolveDestination(req.Destination, c.defaults.OutputDir, req.Source)

	logger.Info("conversion started",
		logging.String("source", req.Source),
		logging.String("destination", res.destination),
		logging.String("mode", string(plan.mode)),
		logging.Int(logging.FieldFrameCount, len(plan.times)),
		logging.Duration("delay", plan.delay),
		logging.Int("loop_count", req.LoopCount),
		logging.Int("max_pixel_size", dimension),
	)

	session, err := c.assembler.Begin(services.WithStage(ctx, "assemble"), assemble.Options{
		Destination:   res.destination,
		ExpectedCount: len(plan.times),
		Container:     assemble.ContainerMeta{LoopCount: req.LoopCount, ColorTable: c.defaults.ColorTable},
		Frame:         assemble.FrameMeta{Delay: plan.delay, MaxPixelSize: dimension},
	})
	if err != nil {
		return res, err
	}
	defer session.Close()

	prog := newProgress(req.Progress, len(plan.times), logger)
	frameMeta := assemble.FrameMeta{Delay: plan.delay, MaxPixelSize: dimension}
	err = c.coordinator.Run(services.WithStage(ctx, "extract"), asset, plan.times, extract.Options{
		Tolerance:    c.defaults.Tolerance,
		MaxDimension: dimension,
		Progress:     prog.extraction,
		OnFrame: func(f extract.Frame) error {
			if err := session.Append(f.Image, frameMeta); err != nil {
				return err
			}
			prog.frameAppended()
			return nil
		},
	})
	res.appended = session.Appended()
	if err != nil {
		return res, err
	}

	path, err := session.Commit()
	if err != nil {
		return res, err
	}
	res.path = path
	prog.finish()
	return res, nil
}

// frameRater is implemented by probed assets that know their native rate.
type frameRater interface {
	FrameRate() float64
}

func warnAboveSourceRate(logger *slog.Logger, asset extract.Asset, requested int) {
	fr, ok := asset.(frameRater)
	if !ok {
		return
	}
	native := fr.FrameRate()
	if native <= 0 || float64(requested) <= native {
		return
	}
	logging.WarnWithContext(logger, "frame rate above source rate", "frame_rate_above_source",
		logging.Int("frame_rate", requested),
		logging.Float64("source_frame_rate", native),
		logging.String(logging.FieldErrorHint, "consecutive frames will repeat; request at most the source rate"),
		logging.String(logging.FieldImpact, "larger GIF with duplicate frames"),
	)
}

func (c *Converter) begin(ctx context.Context, logger *slog.Logger, id string, req Request, started time.Time) {
	if c.history == nil {
		return
	}
	delay := req.Delay
	if req.FrameRate > 0 {
		delay = time.Second / time.Duration(req.FrameRate)
	}
	rec := history.Record{
		ID:           id,
		SourcePath:   strings.TrimSpace(req.Source),
		Destination:  strings.TrimSpace(req.Destination),
		Mode:         string(req.Mode()),
		FrameCount:   max(req.FrameCount, len(req.TimePoints)),
		DelaySeconds: delay.Seconds(),
		LoopCount:    req.LoopCount,
		StartedAt:    started,
	}
	if err := c.history.Begin(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "conversion continues without a history entry"),
		)
	}
}

func (c *Converter) finish(ctx context.Context, logger *slog.Logger, id string, res runResult, err error) {
	if c.history == nil {
		return
	}
	dest := res.path
	if dest == "" {
		dest = res.destination
	}
	out := history.Outcome{
		Destination:    dest,
		FrameCount:     res.planned,
		FramesAppended: res.appended,
		ErrorKind:      services.Kind(err),
		Err:            err,
	}
	if ferr := c.history.Finish(context.WithoutCancel(ctx), id, out); ferr != nil {
		logging.WarnWithContext(logger, "history update failed", "history_write_failed",
			logging.Error(ferr),
			logging.String(logging.FieldImpact, "history shows the conversion as running"),
		)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return "check frame count, frame rate, time points, start and duration"
	case errors.Is(err, services.ErrSourceFormatInvalid):
		return "confirm the source is a video ffprobe can read"
	case errors.Is(err, services.ErrDestinationUnavailable):
		return "check the destination directory exists and is writable"
	case errors.Is(err, services.ErrFrameExtractionFailed):
		return "run ffmpeg manually at the failing timestamp"
	case errors.Is(err, services.ErrTimeout):
		return "raise timeout_seconds or request fewer frames"
	default:
		return "check logs for details"
	}
}
