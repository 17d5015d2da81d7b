package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/moffa90/nrfpack/uf2"
)

// infoBlocks is how many blocks writeInfo lists individually.
const infoBlocks = 5

func writeInfo(w io.Writer, path string, f *uf2.File) {
	fmt.Fprintf(w, "UF2 file: %s\n", path)
	fmt.Fprintf(w, "  Blocks:        %d\n", len(f.Blocks))

	families := f.Families()
	if len(families) == 0 {
		fmt.Fprintf(w, "  Family:        none\n")
	}
	for _, id := range families {
		fmt.Fprintf(w, "  Family:        0x%08X (%s)\n", id, uf2.FamilyName(id))
	}

	fmt.Fprintf(w, "  Payload:       %d bytes\n", f.PayloadSize())

	base, data, err := f.Binary(0)
	switch {
	case errors.Is(err, uf2.ErrEmptyImage):
		fmt.Fprintf(w, "  Image:         empty\n")
	case err != nil:
		fmt.Fprintf(w, "  Image:         invalid: %v\n", err)
	default:
		fmt.Fprintf(w, "  Address range: 0x%08X-0x%08X\n", base, uint64(base)+uint64(len(data)))
		fmt.Fprintf(w, "  Image size:    %s (%d bytes)\n", humanize.IBytes(uint64(len(data))), len(data))
	}

	display := infoBlocks
	if len(f.Blocks) < display {
		display = len(f.Blocks)
	}
	if display == 0 {
		return
	}

	fmt.Fprintf(w, "\nFirst %d blocks:\n", display)
	for _, b := range f.Blocks[:display] {
		fmt.Fprintf(w, "  Block %d/%d: 0x%08X, %d bytes, flags 0x%08X\n",
			b.BlockNo, b.NumBlocks, b.Addr, len(b.Payload), b.Flags)
	}

	if len(f.Blocks) > display {
		fmt.Fprintf(w, "  ... and %d more blocks\n", len(f.Blocks)-display)
	}
}
