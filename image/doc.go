// Package image turns a linked executable into the raw bytes that go into
// flash.
//
// # Executables
//
// Open and Read load an ELF32 ARM executable. Each section is classified as
// code, rodata, data, bss, debug or other, and keeps both its run-time address
// and its load address. Initialized data is the case where the two differ: it
// runs from RAM but is stored in flash right after the read-only sections.
//
// # Extraction
//
// Extract copies the loadable sections to their load addresses:
//
//	exe, err := image.Open("app.elf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bin, err := image.Extract(exe, m.Flash())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes at 0x%08X\n", bin.Len(), bin.Base)
//
// Debug and bss sections never reach the image. Gaps between sections are
// padded with the fill byte. A section outside the application region fails
// with *OverflowError.
//
// # Intel HEX
//
// WriteIntelHex and ReadIntelHex convert between a Binary and Intel HEX
// records, the other input format UF2 packers commonly accept.
package image
