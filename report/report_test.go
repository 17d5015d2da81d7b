package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/nrfpack/image"
	"github.com/moffa90/nrfpack/partition"
)

func testExecutable() *image.Executable {
	return &image.Executable{
		Entry: 0x26101,
		Sections: []*image.Section{
			{Name: ".vector_table", Kind: image.KindCode, Addr: 0x26000, LMA: 0x26000, Size: 4, Data: []byte{0, 0, 4, 0x20}},
			{Name: ".text", Kind: image.KindCode, Addr: 0x26100, LMA: 0x26100, Size: 6, Data: []byte{0x80, 0xB5, 0x00, 0xBF, 0x80, 0xBD}},
			{Name: ".rodata", Kind: image.KindROData, Addr: 0x26200, LMA: 0x26200, Size: 0x100, Data: make([]byte, 0x100)},
			{Name: ".data", Kind: image.KindData, Addr: 0x20000000, LMA: 0x26300, Size: 0x10, Data: make([]byte, 0x10)},
			{Name: ".bss", Kind: image.KindBSS, Addr: 0x20000010, LMA: 0x26310, Size: 0x400},
			{Name: ".debug_info", Kind: image.KindDebug, Size: 0x5000},
		},
		Symbols: []image.Symbol{
			{Name: "_ZN3app4main17h0123456789abcdefE", Value: 0x26100, Kind: image.SymbolFunc},
			{Name: "Reset", Value: 0x26104, Kind: image.SymbolFunc},
			{Name: "COUNTER", Value: 0x20000000, Kind: image.SymbolObject},
		},
	}
}

func TestSize(t *testing.T) {
	s := Size(testExecutable())

	assert.Equal(t, uint64(4+6+0x100), s.Text)
	assert.Equal(t, uint64(0x10), s.Data)
	assert.Equal(t, uint64(0x400), s.BSS)
	assert.Equal(t, s.Text+s.Data+s.BSS, s.Total())
	assert.Equal(t, s.Text+s.Data, s.Flash())
	assert.Equal(t, s.Data+s.BSS, s.RAM())

	require.Len(t, s.Rows, 5)
	assert.Equal(t, ".vector_table", s.Rows[0].Name)
	assert.Equal(t, ".data", s.Rows[3].Name)
	assert.Equal(t, ".bss", s.Rows[4].Name)
}

func TestWriteSize(t *testing.T) {
	p, err := partition.Lookup(partition.DefaultProfile)
	require.NoError(t, err)
	m, err := partition.NewMap(p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSize(&buf, Size(testExecutable()), m))

	out := buf.String()
	assert.Contains(t, out, ".text")
	assert.Contains(t, out, "0x00026100")
	assert.Contains(t, out, "FLASH")
	assert.Contains(t, out, "824 KiB")
	assert.Contains(t, out, "RAM")
	assert.Contains(t, out, "256 KiB")
	assert.NotContains(t, out, ".debug_info")
	assert.NotContains(t, out, "OVERFLOW")
}

func TestWriteSizeOverflow(t *testing.T) {
	p, err := partition.Lookup(partition.DefaultProfile)
	require.NoError(t, err)
	m, err := partition.NewMap(p)
	require.NoError(t, err)

	s := &Summary{Text: 0xCE000 + 2048}

	var buf bytes.Buffer
	require.NoError(t, WriteSize(&buf, s, m))
	assert.Contains(t, buf.String(), "OVERFLOW by 2.0 KiB")
}

func TestWriteSizeWithoutMap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSize(&buf, Size(testExecutable()), nil))
	assert.NotContains(t, buf.String(), "FLASH")
	assert.Contains(t, buf.String(), "total")
}

// fakeDisassembler decodes every halfword as a nop.
type fakeDisassembler struct {
	err error
}

func (f *fakeDisassembler) Disassemble(code []byte, addr uint32) ([]Instruction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Instruction
	for i := 0; i+1 < len(code); i += 2 {
		out = append(out, Instruction{Addr: addr + uint32(i), Bytes: code[i : i+2], Mnemonic: "nop"})
	}
	return out, nil
}

func TestWriteListing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteListing(&buf, testExecutable(), &fakeDisassembler{}))

	out := buf.String()
	assert.Contains(t, out, "Disassembly of section .vector_table:")
	assert.Contains(t, out, "Disassembly of section .text:")
	assert.NotContains(t, out, ".rodata")
	assert.Contains(t, out, "00026100 <app::main>:")
	assert.Contains(t, out, "00026104 <Reset>:")
	assert.Contains(t, out, "   26102:  00 bf        nop")

	// Sections appear in address order.
	assert.Less(t, strings.Index(out, ".vector_table"), strings.Index(out, ".text"))
}

func TestWriteListingError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteListing(&buf, testExecutable(), &fakeDisassembler{err: errors.New("engine closed")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to disassemble .vector_table")
}

func TestDemangle(t *testing.T) {
	assert.Equal(t, "main", Demangle("main"))
	assert.Equal(t, "app::main", Demangle("_ZN3app4main17h0123456789abcdefE"))
}
