package scraper

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// progress reports download phase advancement; the zero value is a no-op.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(enabled bool, total int, w io.Writer) progress {
	if !enabled || total <= 0 {
		return progress{}
	}
	if w == nil {
		w = os.Stderr
	}
	return progress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)}
}

func (p progress) step() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
