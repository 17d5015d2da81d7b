// Package uf2 encodes raw flash images into the UF2 format accepted by the
// nRF52 UF2 bootloader, and decodes UF2 files back into images.
//
// # Block Format
//
// A UF2 file is a sequence of 512-byte blocks. Each block is one
// mass-storage sector and carries up to 476 payload bytes for one flash
// address:
//
//	Offset  Size  Field
//	0       4     magic start 0 (0x0A324655, "UF2\n")
//	4       4     magic start 1 (0x9E5D5157)
//	8       4     flags
//	12      4     target address
//	16      4     payload size
//	20      4     block number
//	24      4     total block count
//	28      4     family ID
//	32      476   data, zero padded
//	508     4     magic end (0x0AB16F30)
//
// # Encoding
//
// The bootloader writes 256 bytes per block, so an image of L bytes encodes
// to ceil(L/256) blocks. Block i carries the image bytes at offset i*256 and
// targets base+i*256:
//
//	enc := uf2.NewEncoder(uf2.WithFamilyID(uf2.FamilyNRF52840))
//	n, err := enc.Encode(w, data, 0x26000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Encoding is deterministic: the same image, base address and options always
// produce the same bytes.
//
// # Empty Images
//
// What an empty image encodes to is chosen with WithEmptyPolicy:
//   - EmptyReject (default): ErrEmptyImage
//   - EmptyNoBlocks: no blocks, a zero-byte file
//   - EmptyPaddingBlock: one block with a zero-length payload
//
// # Decoding
//
// ParseReader and Parse validate every block and the block numbering;
// File.Binary reassembles the image.
//
// # Error Handling
//
//   - AlignmentError: the base address is not write aligned
//   - EncodingError: bad payload size, address space overflow or a
//     malformed block
package uf2
