package image

import (
	"fmt"
	"io"
	"sort"

	"github.com/marcinbor85/gohex"
)

// HexLineSize is the number of data bytes per Intel HEX record.
const HexLineSize = 16

// MaxHexSpan is the largest address range ReadIntelHex lays out as one
// image. nRF52 flash is 1 MiB.
const MaxHexSpan = 16 << 20

// WriteIntelHex writes bin as Intel HEX records.
func WriteIntelHex(w io.Writer, bin *Binary) error {
	if len(bin.Data) == 0 {
		return fmt.Errorf("empty image")
	}

	mem := gohex.NewMemory()
	if err := mem.AddBinary(bin.Base, bin.Data); err != nil {
		return fmt.Errorf("failed to add image at 0x%08X: %w", bin.Base, err)
	}
	if err := mem.DumpIntelHex(w, HexLineSize); err != nil {
		return fmt.Errorf("failed to write Intel HEX: %w", err)
	}
	return nil
}

// ReadIntelHex reads Intel HEX records into a contiguous image. Gaps between
// data segments are filled with the WithFill byte. With WithRegion every
// segment must lie inside the region; without it the image may span at most
// MaxHexSpan bytes.
func ReadIntelHex(r io.Reader, opts ...Option) (*Binary, error) {
	o := buildOptions(opts)

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("invalid Intel HEX: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("invalid Intel HEX: no data records")
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Address < segments[j].Address })

	if o.region != nil {
		for _, seg := range segments {
			if !o.region.Contains(uint64(seg.Address), uint64(len(seg.Data))) {
				return nil, newOverflowError("", *o.region, seg.Address, uint64(len(seg.Data)))
			}
		}
	}

	base := segments[0].Address
	last := segments[len(segments)-1]
	end := uint64(last.Address) + uint64(len(last.Data))
	if end-uint64(base) > MaxHexSpan {
		return nil, fmt.Errorf("invalid Intel HEX: records span 0x%08X-0x%08X, more than %d bytes",
			base, end, MaxHexSpan)
	}

	data := make([]byte, end-uint64(base))
	if o.fill != 0 {
		for i := range data {
			data[i] = o.fill
		}
	}
	for _, seg := range segments {
		copy(data[seg.Address-base:], seg.Data)
	}

	return &Binary{Base: base, Data: data}, nil
}
