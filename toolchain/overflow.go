package toolchain

import (
	"regexp"
	"strconv"

	"github.com/moffa90/nrfpack/image"
	"github.com/moffa90/nrfpack/partition"
)

var (
	// rust-lld: "section '.text' will not fit in region 'FLASH': overflowed by 1234 bytes"
	lldOverflow = regexp.MustCompile(`section '([^']+)' will not fit in region '([^']+)': overflowed by (\d+) bytes`)

	// GNU ld: "region `FLASH' overflowed by 1234 bytes"
	gnuOverflow = regexp.MustCompile("region [`']([^']+)' overflowed by (\\d+) bytes")
)

// ParseOverflow looks for a linker region overflow message in the linker
// output and returns it as an *image.OverflowError. It returns nil if the
// output has no such message. When several sections overflow, the largest
// overflow is reported.
func ParseOverflow(output string, m *partition.Map) *image.OverflowError {
	var worst *image.OverflowError

	consider := func(section, region, amount string) {
		n, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return
		}
		if worst != nil && worst.Overflow >= n {
			return
		}

		r := partition.Region{Name: region}
		if m != nil {
			if found, ok := m.Region(region); ok {
				r = found
			}
		}
		worst = &image.OverflowError{
			Section:  section,
			Region:   r,
			Addr:     r.Origin,
			Size:     uint64(r.Length) + n,
			Overflow: n,
		}
	}

	for _, match := range lldOverflow.FindAllStringSubmatch(output, -1) {
		consider(match[1], match[2], match[3])
	}
	if worst == nil {
		for _, match := range gnuOverflow.FindAllStringSubmatch(output, -1) {
			consider("", match[1], match[2])
		}
	}

	return worst
}
