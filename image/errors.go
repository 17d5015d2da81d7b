package image

import (
	"errors"
	"fmt"

	"github.com/moffa90/nrfpack/partition"
)

// ErrNoLoadable is returned when an executable has no section that
// contributes bytes to the flash image.
var ErrNoLoadable = errors.New("no loadable sections")

// OverflowError indicates that a section or image does not fit the
// application region it was linked for.
type OverflowError struct {
	// Section names the offending section; empty for a raw image
	Section string

	// Region is the application region that was exceeded
	Region partition.Region

	// Addr is the first load address of the offending bytes
	Addr uint32

	// Size is the size of the offending section or image
	Size uint64

	// Overflow is the number of bytes outside the region
	Overflow uint64
}

func (e *OverflowError) Error() string {
	what := "image"
	if e.Section != "" {
		what = "section " + e.Section
	}
	return fmt.Sprintf("link overflow: %s [0x%08X-0x%08X) exceeds region %s [0x%08X-0x%08X) by %d bytes",
		what, e.Addr, uint64(e.Addr)+e.Size, e.Region.Name, e.Region.Origin, e.Region.End(), e.Overflow)
}

func newOverflowError(section string, region partition.Region, addr uint32, size uint64) *OverflowError {
	var over uint64
	if uint64(addr) < uint64(region.Origin) {
		over = uint64(region.Origin) - uint64(addr)
		if over > size {
			over = size
		}
	}
	if end := uint64(addr) + size; end > region.End() {
		outside := end - region.End()
		if outside > size {
			outside = size
		}
		over += outside
	}
	return &OverflowError{
		Section:  section,
		Region:   region,
		Addr:     addr,
		Size:     size,
		Overflow: over,
	}
}
