package uf2

import (
	"encoding/binary"
	"fmt"
)

// Block is one decoded UF2 block.
type Block struct {
	// Flags is the flag set (FlagFamilyIDPresent etc.)
	Flags uint32

	// Addr is the flash address the payload is written to
	Addr uint32

	// BlockNo is the sequence index of the block within its file
	BlockNo uint32

	// NumBlocks is the total number of blocks in the file
	NumBlocks uint32

	// FamilyID identifies the target device family when
	// FlagFamilyIDPresent is set; otherwise it holds the file size or zero
	FamilyID uint32

	// Payload holds the bytes to write; at most MaxPayloadSize
	Payload []byte
}

// HasFamily reports whether the block carries a family identifier.
func (b *Block) HasFamily() bool {
	return b.Flags&FlagFamilyIDPresent != 0
}

// End returns the first address past the payload.
func (b *Block) End() uint64 {
	return uint64(b.Addr) + uint64(len(b.Payload))
}

// MarshalBinary encodes the block into its BlockSize-byte form. The data area
// past the payload is zero.
//
// Block structure:
//
//	[MAGIC0][MAGIC1][FLAGS][ADDR][LEN][SEQ][TOTAL][FAMILY][DATA(476)][MAGIC_END]
func (b *Block) MarshalBinary() ([]byte, error) {
	if len(b.Payload) > MaxPayloadSize {
		return nil, &EncodingError{Block: int(b.BlockNo), Reason: fmt.Sprintf("payload of %d bytes exceeds %d", len(b.Payload), MaxPayloadSize)}
	}

	buf := make([]byte, BlockSize)
	b.put(buf)
	return buf, nil
}

func (b *Block) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[offMagic0:], MagicStart0)
	binary.LittleEndian.PutUint32(buf[offMagic1:], MagicStart1)
	binary.LittleEndian.PutUint32(buf[offFlags:], b.Flags)
	binary.LittleEndian.PutUint32(buf[offAddr:], b.Addr)
	binary.LittleEndian.PutUint32(buf[offPayload:], uint32(len(b.Payload)))
	binary.LittleEndian.PutUint32(buf[offBlockNo:], b.BlockNo)
	binary.LittleEndian.PutUint32(buf[offNumBlocks:], b.NumBlocks)
	binary.LittleEndian.PutUint32(buf[offFamilyID:], b.FamilyID)
	copy(buf[offData:offMagicEnd], b.Payload)
	binary.LittleEndian.PutUint32(buf[offMagicEnd:], MagicEnd)
}

// ParseBlock decodes one BlockSize-byte block and validates its magic
// numbers and payload size.
func ParseBlock(buf []byte) (*Block, error) {
	if len(buf) != BlockSize {
		return nil, encodingError("invalid block size: got %d bytes, expected %d", len(buf), BlockSize)
	}

	if m := binary.LittleEndian.Uint32(buf[offMagic0:]); m != MagicStart0 {
		return nil, encodingError("invalid start magic 0: got 0x%08X, expected 0x%08X", m, MagicStart0)
	}
	if m := binary.LittleEndian.Uint32(buf[offMagic1:]); m != MagicStart1 {
		return nil, encodingError("invalid start magic 1: got 0x%08X, expected 0x%08X", m, MagicStart1)
	}
	if m := binary.LittleEndian.Uint32(buf[offMagicEnd:]); m != MagicEnd {
		return nil, encodingError("invalid end magic: got 0x%08X, expected 0x%08X", m, MagicEnd)
	}

	size := binary.LittleEndian.Uint32(buf[offPayload:])
	if size > MaxPayloadSize {
		return nil, encodingError("payload size %d exceeds %d", size, MaxPayloadSize)
	}

	b := &Block{
		Flags:     binary.LittleEndian.Uint32(buf[offFlags:]),
		Addr:      binary.LittleEndian.Uint32(buf[offAddr:]),
		BlockNo:   binary.LittleEndian.Uint32(buf[offBlockNo:]),
		NumBlocks: binary.LittleEndian.Uint32(buf[offNumBlocks:]),
		FamilyID:  binary.LittleEndian.Uint32(buf[offFamilyID:]),
		Payload:   append([]byte(nil), buf[offData:offData+size]...),
	}

	if b.NumBlocks == 0 || b.BlockNo >= b.NumBlocks {
		return nil, &EncodingError{Block: int(b.BlockNo), Reason: fmt.Sprintf("block number %d out of range for %d blocks", b.BlockNo, b.NumBlocks)}
	}

	return b, nil
}
