package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/moffa90/nrfpack/image"
	"github.com/moffa90/nrfpack/partition"
)

// Row is one allocated section in a size summary.
type Row struct {
	Name string
	Kind image.SectionKind
	Addr uint32
	Size uint32
}

// Summary totals the device memory an executable occupies, in the Berkeley
// size(1) grouping.
type Summary struct {
	// Rows lists the allocated sections in address order
	Rows []Row

	// Text is code plus read-only data
	Text uint64

	// Data is initialized read-write data; it occupies flash and RAM
	Data uint64

	// BSS is zero-initialized RAM
	BSS uint64
}

// Total returns Text + Data + BSS.
func (s *Summary) Total() uint64 {
	return s.Text + s.Data + s.BSS
}

// Flash returns the flash bytes the image occupies.
func (s *Summary) Flash() uint64 {
	return s.Text + s.Data
}

// RAM returns the statically allocated RAM bytes.
func (s *Summary) RAM() uint64 {
	return s.Data + s.BSS
}

// Size summarizes the allocated sections of exe.
func Size(exe *image.Executable) *Summary {
	s := &Summary{}

	for _, sec := range exe.Sections {
		if !sec.Kind.Allocated() || sec.Size == 0 {
			continue
		}

		s.Rows = append(s.Rows, Row{Name: sec.Name, Kind: sec.Kind, Addr: sec.Addr, Size: sec.Size})

		switch sec.Kind {
		case image.KindCode, image.KindROData:
			s.Text += uint64(sec.Size)
		case image.KindData:
			s.Data += uint64(sec.Size)
		case image.KindBSS:
			s.BSS += uint64(sec.Size)
		}
	}

	sort.SliceStable(s.Rows, func(i, j int) bool { return s.Rows[i].Addr < s.Rows[j].Addr })
	return s
}

// WriteSize prints the section table and the usage of the application
// regions of m. A nil map prints the section table and totals only.
//
// Example output:
//
//	section       kind    addr        size
//	.vector_table code    0x00026000  256 B
//	.text         code    0x00026100  12 KiB
//	...
//	FLASH  12 KiB / 824 KiB  (1.5%)
//	RAM    1.0 KiB / 256 KiB (0.4%)
func WriteSize(w io.Writer, s *Summary, m *partition.Map) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "section\tkind\taddr\tsize\t")
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%s\t%s\t0x%08X\t%s\t\n", r.Name, r.Kind, r.Addr, humanize.IBytes(uint64(r.Size)))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "text\t%d\t\t%s\t\n", s.Text, humanize.IBytes(s.Text))
	fmt.Fprintf(tw, "data\t%d\t\t%s\t\n", s.Data, humanize.IBytes(s.Data))
	fmt.Fprintf(tw, "bss\t%d\t\t%s\t\n", s.BSS, humanize.IBytes(s.BSS))
	fmt.Fprintf(tw, "total\t%d\t\t%s\t\n", s.Total(), humanize.IBytes(s.Total()))

	if m != nil {
		fmt.Fprintln(tw)
		writeUsage(tw, m.Flash(), s.Flash())
		writeUsage(tw, m.RAM(), s.RAM())
	}

	return tw.Flush()
}

func writeUsage(w io.Writer, r partition.Region, used uint64) {
	pct := 0.0
	if r.Length > 0 {
		pct = float64(used) * 100 / float64(r.Length)
	}

	note := ""
	if used > uint64(r.Length) {
		note = fmt.Sprintf("OVERFLOW by %s", humanize.IBytes(used-uint64(r.Length)))
	}

	fmt.Fprintf(w, "%s\t%s / %s\t(%.1f%%)\t%s\t\n", r.Name, humanize.IBytes(used), humanize.IBytes(uint64(r.Length)), pct, note)
}
