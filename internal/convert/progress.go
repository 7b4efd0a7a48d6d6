package convert

import (
	"log/slog"

	"regift/internal/logging"
)

// Extraction and appends share the range below 1.0; the final step is
// reported only after publish.
const (
	extractWeight = 0.5
	appendWeight  = 0.45
)

type progress struct {
	report    func(float64)
	total     int
	extracted float64
	appended  int
	last      float64
	sampler   *logging.ProgressSampler
	logger    *slog.Logger
}

func newProgress(report func(float64), total int, logger *slog.Logger) *progress {
	return &progress{report: report, total: total, sampler: logging.NewProgressSampler(25), logger: logger}
}

func (p *progress) extraction(fraction float64) {
	p.extracted = fraction
	p.emit("extract")
}

func (p *progress) frameAppended() {
	p.appended++
	p.emit("append")
}

func (p *progress) finish() {
	p.last = 1
	if p.report != nil {
		p.report(1)
	}
}

func (p *progress) emit(phase string) {
	if p.total <= 0 {
		return
	}
	v := extractWeight*p.extracted + appendWeight*float64(p.appended)/float64(p.total)
	if v <= p.last {
		return
	}
	p.last = v
	if p.report != nil {
		p.report(v)
	}
	if p.logger != nil && p.sampler.ShouldLog(v*100, "") {
		p.logger.Debug("conversion progress",
			logging.String("phase", phase),
			logging.Float64("percent", v*100),
			logging.Int("appended", p.appended),
			logging.Int(logging.FieldFrameCount, p.total),
		)
	}
}
