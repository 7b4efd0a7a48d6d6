package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

const progressSteps = 1000

// progressBar renders conversion progress in [0, 1] on a terminal. A nil
// *progressBar ignores every call.
type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, description string) *progressBar {
	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	return &progressBar{bar: bar}
}

// Set moves the bar to fraction.
func (p *progressBar) Set(fraction float64) {
	if p == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	_ = p.bar.Set(int(fraction * progressSteps))
}

// Finish completes the bar on success and leaves it in place otherwise.
func (p *progressBar) Finish(ok bool) {
	if p == nil {
		return
	}
	if ok {
		_ = p.bar.Finish()
		return
	}
	_ = p.bar.Exit()
}
