package capstone

import (
	"errors"
	"testing"

	"github.com/knightsc/gapstone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassemble(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	// nop; bx lr; then an undecodable halfword.
	code := []byte{0x00, 0xBF, 0x70, 0x47, 0xFF, 0xFF}

	insns, err := d.Disassemble(code, 0x26000)
	require.NoError(t, err)
	require.NotEmpty(t, insns)

	assert.Equal(t, uint32(0x26000), insns[0].Addr)
	assert.Equal(t, "nop", insns[0].Mnemonic)
	assert.Equal(t, uint32(0x26002), insns[1].Addr)
	assert.Equal(t, "bx", insns[1].Mnemonic)
	assert.Equal(t, "lr", insns[1].Operands)

	covered := 0
	for _, insn := range insns {
		covered += len(insn.Bytes)
	}
	assert.Equal(t, len(code), covered)
}

func TestDataWordOddTail(t *testing.T) {
	insn := dataWord([]byte{0xAB}, 0x100)
	assert.Equal(t, ".byte", insn.Mnemonic)
	assert.Equal(t, "0xab", insn.Operands)
}

func TestDisassembleUndecodableIsData(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	// The first halfword of a 32-bit encoding with nothing after it.
	insns, err := d.Disassemble([]byte{0xFF, 0xFF}, 0x26000)
	require.NoError(t, err)
	require.Len(t, insns, 1)
	assert.Equal(t, ".short", insns[0].Mnemonic)
	assert.Equal(t, "0xffff", insns[0].Operands)
}

func TestDisassembleClosedEngine(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = d.Disassemble([]byte{0x00, 0xBF}, 0x26000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disassembly failed at 0x00026000")
}

func TestEngineError(t *testing.T) {
	assert.NoError(t, engineError(nil))
	assert.NoError(t, engineError(gapstone.ErrOK))

	err := engineError(gapstone.ErrMem)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gapstone.ErrMem))
}
