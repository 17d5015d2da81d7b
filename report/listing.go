package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ianlancetaylor/demangle"

	"github.com/moffa90/nrfpack/image"
)

// Instruction is one decoded machine instruction.
type Instruction struct {
	Addr     uint32
	Bytes    []byte
	Mnemonic string
	Operands string
}

// Disassembler decodes machine code. Implementations must cover all of code:
// bytes that do not decode are returned as data pseudo-instructions.
type Disassembler interface {
	Disassemble(code []byte, addr uint32) ([]Instruction, error)
}

// Demangle returns the human-readable form of a Rust or C++ symbol name, or
// the name unchanged if it is not mangled.
func Demangle(name string) string {
	pretty, err := demangle.ToString(name)
	if err != nil {
		return name
	}
	return pretty
}

// WriteListing disassembles every code section of exe with d. Function
// symbols are printed as labels above their first instruction.
//
// Example output:
//
//	Disassembly of section .text:
//
//	00026100 <main>:
//	   26100:  80 b5        push  {r7, lr}
//	   26102:  6f 46        mov   r7, sp
func WriteListing(w io.Writer, exe *image.Executable, d Disassembler) error {
	bw := bufio.NewWriter(w)

	var sections []*image.Section
	for _, s := range exe.Sections {
		if s.Kind == image.KindCode && len(s.Data) > 0 {
			sections = append(sections, s)
		}
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Addr < sections[j].Addr })

	for _, sec := range sections {
		insns, err := d.Disassemble(sec.Data, sec.Addr)
		if err != nil {
			return fmt.Errorf("failed to disassemble %s: %w", sec.Name, err)
		}

		labels := make(map[uint32][]string)
		for _, sym := range exe.SymbolsIn(sec) {
			if sym.Kind == image.SymbolFunc {
				labels[sym.Value] = append(labels[sym.Value], Demangle(sym.Name))
			}
		}

		fmt.Fprintf(bw, "\nDisassembly of section %s:\n", sec.Name)

		for _, insn := range insns {
			for _, label := range labels[insn.Addr] {
				fmt.Fprintf(bw, "\n%08x <%s>:\n", insn.Addr, label)
			}
			writeInstruction(bw, insn)
		}
	}

	return bw.Flush()
}

func writeInstruction(w io.Writer, insn Instruction) {
	hex := make([]string, len(insn.Bytes))
	for i, b := range insn.Bytes {
		hex[i] = fmt.Sprintf("%02x", b)
	}

	line := fmt.Sprintf("%8x:  %-12s %-7s %s", insn.Addr, strings.Join(hex, " "), insn.Mnemonic, insn.Operands)
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}
