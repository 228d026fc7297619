package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// progressBar renders transfer progress on a single terminal line.
type progressBar struct {
	w     io.Writer
	label string
	bar   progress.Model
	drawn bool
}

func newProgressBar(w io.Writer, label string) *progressBar {
	return &progressBar{
		w:     w,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (p *progressBar) OnProgress(sent int, total int) {
	percent := 1.0
	if total > 0 {
		percent = float64(sent) / float64(total)
	}

	fmt.Fprintf(p.w, "\r%s %s %d/%d", p.label, p.bar.ViewAs(percent), sent, total)
	p.drawn = true
}

func (p *progressBar) finish() {
	if p.drawn {
		fmt.Fprintln(p.w)
	}
}
