package image

import (
	"fmt"

	"github.com/moffa90/nrfpack/partition"
)

// Binary is a contiguous raw image: the bytes to place in flash starting at
// Base.
type Binary struct {
	Base uint32
	Data []byte
}

// Len returns the image size in bytes.
func (b *Binary) Len() int {
	return len(b.Data)
}

// End returns the first address past the image.
func (b *Binary) End() uint64 {
	return uint64(b.Base) + uint64(len(b.Data))
}

// Option configures extraction.
type Option func(*options)

type options struct {
	fill   byte
	region *partition.Region
}

// WithFill sets the byte used for gaps between sections (default 0x00).
// 0xFF matches erased flash.
func WithFill(b byte) Option {
	return func(o *options) {
		o.fill = b
	}
}

// WithRegion bounds ReadIntelHex to region. Records outside it, such as
// UICR settings, are reported as an *OverflowError before any image buffer
// is allocated.
func WithRegion(r partition.Region) Option {
	return func(o *options) {
		o.region = &r
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Extract lays the loadable sections of exe out at their load addresses and
// returns them as one contiguous image. Every loadable section must lie
// inside region.
//
// Example:
//
//	bin, err := image.Extract(exe, m.Flash(), image.WithFill(0xFF))
//	if err != nil {
//	    log.Fatal(err) // *OverflowError when the application outgrew FLASH
//	}
func Extract(exe *Executable, region partition.Region, opts ...Option) (*Binary, error) {
	o := buildOptions(opts)

	sections := exe.Loadable()
	if len(sections) == 0 {
		return nil, ErrNoLoadable
	}

	for i, s := range sections {
		if uint64(len(s.Data)) != uint64(s.Size) {
			return nil, fmt.Errorf("section %s: size 0x%X does not match %d bytes of contents", s.Name, s.Size, len(s.Data))
		}
		if !region.Contains(uint64(s.LMA), uint64(s.Size)) {
			return nil, newOverflowError(s.Name, region, s.LMA, uint64(s.Size))
		}
		if i > 0 {
			prev := sections[i-1]
			if uint64(s.LMA) < prev.End() {
				return nil, fmt.Errorf("sections %s and %s overlap at 0x%08X", prev.Name, s.Name, s.LMA)
			}
		}
	}

	base := sections[0].LMA
	last := sections[len(sections)-1]
	data := make([]byte, last.End()-uint64(base))

	if o.fill != 0 {
		for i := range data {
			data[i] = o.fill
		}
	}
	for _, s := range sections {
		copy(data[s.LMA-base:], s.Data)
	}

	return &Binary{Base: base, Data: data}, nil
}

// CheckFit verifies that a raw image lies inside region. It is the overflow
// check for images that did not come from Extract.
func CheckFit(bin *Binary, region partition.Region) error {
	if !region.Contains(uint64(bin.Base), uint64(len(bin.Data))) {
		return newOverflowError("", region, bin.Base, uint64(len(bin.Data)))
	}
	return nil
}
