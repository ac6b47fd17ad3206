package main

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/moffa90/go-halfkay/bootloader"
)

// progressBar renders bootloader progress as a terminal bar.
type progressBar struct {
	bar   *progressbar.ProgressBar
	phase string
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(bootloader.PhaseReading),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		),
		phase: bootloader.PhaseReading,
	}
}

// update is a bootloader.ProgressCallback.
func (p *progressBar) update(pr bootloader.Progress) {
	if pr.Phase != p.phase {
		p.phase = pr.Phase
		p.bar.Describe(pr.Phase)
	}

	switch pr.Phase {
	case bootloader.PhaseProgramming, bootloader.PhaseBooting:
		_ = p.bar.Set(int(pr.Percentage))
	case bootloader.PhaseComplete:
		_ = p.bar.Finish()
	}
}
