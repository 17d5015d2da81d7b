// Package toolchain provides pipeline linkers backed by external build
// tools.
//
// Command writes the partition map as memory.x into the project, runs the
// build (cargo by default) and loads the resulting ELF file. When the linker
// reports that a section does not fit its region, the message is turned into
// an *image.OverflowError so it reads the same as an overflow found during
// extraction.
//
// Prebuilt loads an executable that was linked elsewhere.
package toolchain
