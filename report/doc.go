// Package report produces read-only diagnostics for a linked executable: a
// size summary against the partition map and a disassembly listing.
//
// Reports never feed back into the flashable image. A failing report is a
// warning, not a build failure.
//
// The Disassembler interface keeps the instruction decoder pluggable; package
// report/capstone provides one for Cortex-M.
package report
