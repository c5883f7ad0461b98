package indexbuild

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress receives build progress. A nil Progress reports nothing.
type Progress interface {
	Start(total int)
	Add(n int)
	Finish()
}

type barProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewBarProgress renders a terminal progress bar on out.
func NewBarProgress(out io.Writer) Progress {
	return &barProgress{out: out}
}

func (p *barProgress) Start(total int) {
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *barProgress) Add(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *barProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
