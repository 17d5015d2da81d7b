package uf2

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// File is a decoded UF2 file.
type File struct {
	Blocks []*Block
}

// Parse decodes a UF2 file from the given path.
//
// Example:
//
//	f, err := uf2.Parse("app.uf2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d blocks for %v\n", len(f.Blocks), f.Families())
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader decodes a UF2 file from any io.Reader. It validates every
// block and checks that each run of blocks is numbered 0..NumBlocks-1 with a
// consistent total. A zero-length input decodes to a file with no blocks.
func ParseReader(r io.Reader) (*File, error) {
	file := &File{}
	buf := make([]byte, BlockSize)

	var (
		next  uint32
		total uint32
	)

	for i := 0; ; i++ {
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &EncodingError{Block: i, Reason: "truncated block"}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read block %d: %w", i, err)
		}

		b, err := ParseBlock(buf)
		if err != nil {
			var encErr *EncodingError
			if errors.As(err, &encErr) {
				encErr.Block = i
			}
			return nil, err
		}

		if next == 0 {
			total = b.NumBlocks
		}
		if b.BlockNo != next {
			return nil, &EncodingError{Block: i, Reason: fmt.Sprintf("block number %d out of order, expected %d", b.BlockNo, next)}
		}
		if b.NumBlocks != total {
			return nil, &EncodingError{Block: i, Reason: fmt.Sprintf("total block count %d differs from %d", b.NumBlocks, total)}
		}

		next++
		if next == total {
			next = 0
		}

		file.Blocks = append(file.Blocks, b)
	}

	if next != 0 {
		return nil, encodingError("file ends after block %d of %d", next, total)
	}

	return file, nil
}

// Families returns the distinct family identifiers in block order.
func (f *File) Families() []uint32 {
	var ids []uint32
	seen := make(map[uint32]bool)
	for _, b := range f.Blocks {
		if !b.HasFamily() || seen[b.FamilyID] {
			continue
		}
		seen[b.FamilyID] = true
		ids = append(ids, b.FamilyID)
	}
	return ids
}

// PayloadSize returns the total number of payload bytes across all blocks.
func (f *File) PayloadSize() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Payload)
	}
	return n
}

// Binary reconstructs the raw image from the main-flash blocks. Gaps between
// blocks are filled with fill. Blocks whose payloads overlap are an error.
func (f *File) Binary(fill byte) (base uint32, data []byte, err error) {
	var blocks []*Block
	for _, b := range f.Blocks {
		if b.Flags&(FlagNotMainFlash|FlagFileContainer) != 0 || len(b.Payload) == 0 {
			continue
		}
		blocks = append(blocks, b)
	}
	if len(blocks) == 0 {
		return 0, nil, ErrEmptyImage
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Addr < blocks[j].Addr })

	for i := 1; i < len(blocks); i++ {
		if uint64(blocks[i].Addr) < blocks[i-1].End() {
			return 0, nil, encodingError("blocks %d and %d overlap at 0x%08X",
				blocks[i-1].BlockNo, blocks[i].BlockNo, blocks[i].Addr)
		}
	}

	base = blocks[0].Addr
	var end uint64
	for _, b := range blocks {
		if b.End() > end {
			end = b.End()
		}
	}

	data = make([]byte, end-uint64(base))
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	for _, b := range blocks {
		copy(data[b.Addr-base:], b.Payload)
	}

	return base, data, nil
}
