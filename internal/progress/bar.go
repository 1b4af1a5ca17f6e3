package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar renders Reporter updates as a terminal progress bar.
type Bar struct {
	bar *progressbar.ProgressBar
}

func NewBar(w io.Writer) *Bar {
	return &Bar{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)}
}

// Attach subscribes the bar to r; call the returned function to detach.
func (b *Bar) Attach(r *Reporter) func() {
	return r.Subscribe(b.Update)
}

func (b *Bar) Update(u Update) {
	b.bar.Describe(u.Message)
	_ = b.bar.Set(u.Progress)
}

func (b *Bar) Finish() error {
	return b.bar.Finish()
}
