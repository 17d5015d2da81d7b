package uf2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, enc *Encoder, data []byte, base uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := enc.Encode(&buf, data, base)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, size := range []int{1, 44, 256, 300, 4097} {
		data := pattern(size)
		raw := encode(t, NewEncoder(), data, 0x26000)

		f, err := ParseReader(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Len(t, f.Blocks, (size+255)/256)
		assert.Equal(t, []uint32{FamilyNRF52840}, f.Families())
		assert.Equal(t, size, f.PayloadSize())

		base, got, err := f.Binary(0)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x26000), base)
		assert.Equal(t, data, got)

		// Re-encoding the decoded image reproduces the file.
		assert.Equal(t, raw, encode(t, NewEncoder(), got, base))
	}
}

func TestParseBlockMarshalRoundTrip(t *testing.T) {
	b := &Block{
		Flags:     FlagFamilyIDPresent,
		Addr:      0x26100,
		BlockNo:   1,
		NumBlocks: 2,
		FamilyID:  FamilyNRF52840,
		Payload:   pattern(44),
	}

	raw, err := b.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, BlockSize)

	got, err := ParseBlock(raw)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestParseBlockErrors(t *testing.T) {
	valid, err := (&Block{Flags: FlagFamilyIDPresent, NumBlocks: 1, Payload: pattern(8)}).MarshalBinary()
	require.NoError(t, err)

	corrupt := func(off int, v uint32) []byte {
		buf := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(buf[off:], v)
		return buf
	}

	tests := []struct {
		name   string
		input  []byte
		errMsg string
	}{
		{"short", valid[:100], "invalid block size"},
		{"bad magic 0", corrupt(0, 0x12345678), "invalid start magic 0"},
		{"bad magic 1", corrupt(4, 0), "invalid start magic 1"},
		{"bad end magic", corrupt(508, 0), "invalid end magic"},
		{"payload too large", corrupt(16, 477), "payload size 477 exceeds 476"},
		{"block number past total", corrupt(20, 1), "out of range"},
		{"zero total", corrupt(24, 0), "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBlock(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, IsEncodingError(err))
		})
	}
}

func TestParseReaderErrors(t *testing.T) {
	raw := encode(t, NewEncoder(), pattern(1000), 0x26000)

	t.Run("truncated block", func(t *testing.T) {
		_, err := ParseReader(bytes.NewReader(raw[:BlockSize+10]))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "block 1: truncated block")
	})

	t.Run("missing blocks", func(t *testing.T) {
		_, err := ParseReader(bytes.NewReader(raw[:2*BlockSize]))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file ends after block 2 of 4")
	})

	t.Run("out of order", func(t *testing.T) {
		swapped := append([]byte(nil), raw...)
		copy(swapped[BlockSize:], raw[2*BlockSize:3*BlockSize])
		copy(swapped[2*BlockSize:], raw[BlockSize:2*BlockSize])

		_, err := ParseReader(bytes.NewReader(swapped))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "block 1: block number 2 out of order, expected 1")
	})

	t.Run("bad magic reports file position", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		binary.LittleEndian.PutUint32(bad[3*BlockSize:], 0)

		_, err := ParseReader(bytes.NewReader(bad))
		var encErr *EncodingError
		require.True(t, errors.As(err, &encErr))
		assert.Equal(t, 3, encErr.Block)
	})
}

func TestParseEmptyFile(t *testing.T) {
	f, err := ParseReader(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, f.Blocks)

	_, _, err = f.Binary(0)
	assert.True(t, errors.Is(err, ErrEmptyImage))
}

func TestParsePaddingBlock(t *testing.T) {
	raw := encode(t, NewEncoder(WithEmptyPolicy(EmptyPaddingBlock)), nil, 0x26000)

	f, err := ParseReader(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, f.Blocks, 1)
	assert.Zero(t, f.PayloadSize())

	_, _, err = f.Binary(0)
	assert.True(t, errors.Is(err, ErrEmptyImage))
}

func TestParseConcatenatedFiles(t *testing.T) {
	a := encode(t, NewEncoder(), pattern(300), 0x26000)
	b := encode(t, NewEncoder(WithFamilyID(FamilyNRF52833)), pattern(100), 0x40000)

	f, err := ParseReader(bytes.NewReader(append(append([]byte{}, a...), b...)))
	require.NoError(t, err)
	assert.Len(t, f.Blocks, 3)
	assert.Equal(t, []uint32{FamilyNRF52840, FamilyNRF52833}, f.Families())

	base, data, err := f.Binary(0xFF)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x26000), base)
	assert.Equal(t, 0x40000-0x26000+100, len(data))
	assert.Equal(t, byte(0xFF), data[300])
}

func TestBinaryOverlap(t *testing.T) {
	f := &File{Blocks: []*Block{
		{Addr: 0x26000, NumBlocks: 2, Payload: pattern(256)},
		{Addr: 0x26080, BlockNo: 1, NumBlocks: 2, Payload: pattern(16)},
	}}

	_, _, err := f.Binary(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.uf2")
	require.NoError(t, os.WriteFile(path, encode(t, NewEncoder(), pattern(10), 0x26000), 0o644))

	f, err := Parse(path)
	require.NoError(t, err)
	assert.Len(t, f.Blocks, 1)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.uf2"))
	assert.Error(t, err)
}

func TestFamilies(t *testing.T) {
	assert.Equal(t, "nRF52840", FamilyName(FamilyNRF52840))
	assert.Equal(t, "0x12345678", FamilyName(0x12345678))

	id, ok := LookupFamily("nRF52833")
	require.True(t, ok)
	assert.Equal(t, uint32(FamilyNRF52833), id)

	_, ok = LookupFamily("Z80")
	assert.False(t, ok)

	assert.Contains(t, FamilyNames(), "nRF52840")
}
