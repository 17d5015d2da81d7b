// Package capstone disassembles Thumb-2 code for Cortex-M cores with the
// Capstone engine.
package capstone

import (
	"errors"
	"fmt"

	"github.com/knightsc/gapstone"

	"github.com/moffa90/nrfpack/report"
)

// Disassembler decodes ARMv7E-M Thumb code. It must be closed after use.
type Disassembler struct {
	engine gapstone.Engine
}

var _ report.Disassembler = (*Disassembler)(nil)

// New opens a Capstone engine in Thumb M-class mode.
func New() (*Disassembler, error) {
	engine, err := gapstone.New(gapstone.CS_ARCH_ARM, gapstone.CS_MODE_THUMB+gapstone.CS_MODE_MCLASS)
	if err != nil {
		return nil, fmt.Errorf("failed to open capstone: %w", err)
	}
	return &Disassembler{engine: engine}, nil
}

// Close releases the engine.
func (d *Disassembler) Close() error {
	return engineError(d.engine.Close())
}

// Disassemble decodes code loaded at addr. Capstone stops at the first
// undecodable halfword (literal pools, padding); such halfwords are emitted
// as ".short" and decoding resumes after them.
func (d *Disassembler) Disassemble(code []byte, addr uint32) ([]report.Instruction, error) {
	var out []report.Instruction

	for off := 0; off < len(code); {
		insns, err := d.engine.Disasm(code[off:], uint64(addr)+uint64(off), 0)

		if len(insns) == 0 {
			if err := engineError(err); err != nil {
				return nil, fmt.Errorf("disassembly failed at 0x%08X: %w", addr+uint32(off), err)
			}
			out = append(out, dataWord(code[off:], addr+uint32(off)))
			off += len(out[len(out)-1].Bytes)
			continue
		}

		for _, insn := range insns {
			out = append(out, report.Instruction{
				Addr:     uint32(insn.Address),
				Bytes:    append([]byte(nil), insn.Bytes...),
				Mnemonic: insn.Mnemonic,
				Operands: insn.OpStr,
			})
			off += int(insn.Size)
		}
	}

	return out, nil
}

// engineError maps Capstone's ErrOK, which Disasm returns when nothing
// decodes and Close returns on success, to nil.
func engineError(err error) error {
	if err == nil || errors.Is(err, gapstone.ErrOK) {
		return nil
	}
	return err
}

func dataWord(code []byte, addr uint32) report.Instruction {
	if len(code) < 2 {
		return report.Instruction{
			Addr:     addr,
			Bytes:    []byte{code[0]},
			Mnemonic: ".byte",
			Operands: fmt.Sprintf("0x%02x", code[0]),
		}
	}
	return report.Instruction{
		Addr:     addr,
		Bytes:    []byte{code[0], code[1]},
		Mnemonic: ".short",
		Operands: fmt.Sprintf("0x%04x", uint16(code[0])|uint16(code[1])<<8),
	}
}
