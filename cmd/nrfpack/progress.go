package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/moffa90/nrfpack/pipeline"
)

// progressBar renders build progress on a terminal line.
type progressBar struct {
	w     io.Writer
	width int
}

func newProgressBar(w io.Writer, width int) *progressBar {
	return &progressBar{w: w, width: width}
}

func (pb *progressBar) bar(percentage float64) string {
	filled := int(float64(pb.width) * percentage / 100.0)
	if filled > pb.width {
		filled = pb.width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", pb.width-filled)
}

func (pb *progressBar) update(p pipeline.Progress) {
	// Clear line and move cursor to beginning
	fmt.Fprint(pb.w, "\r\033[K")

	fmt.Fprintf(pb.w, "[%s] %5.1f%% %-10s", pb.bar(p.Percentage), p.Percentage, p.Phase)
	if p.ImageSize > 0 {
		fmt.Fprintf(pb.w, " | %s", humanize.IBytes(uint64(p.ImageSize)))
	}
	if p.Blocks > 0 {
		fmt.Fprintf(pb.w, " | %d blocks", p.Blocks)
	}

	if p.Phase == pipeline.PhaseComplete {
		fmt.Fprintln(pb.w)
	}
}
