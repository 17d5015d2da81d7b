package uf2

import (
	"fmt"
	"io"
)

// EmptyPolicy decides what encoding an empty image produces.
type EmptyPolicy int

const (
	// EmptyReject fails with ErrEmptyImage
	EmptyReject EmptyPolicy = iota

	// EmptyNoBlocks produces a zero-block, zero-byte file
	EmptyNoBlocks

	// EmptyPaddingBlock produces a single block with a zero-length payload
	// at the base address
	EmptyPaddingBlock
)

// String returns the policy name used in configuration.
func (p EmptyPolicy) String() string {
	switch p {
	case EmptyReject:
		return "reject"
	case EmptyNoBlocks:
		return "none"
	case EmptyPaddingBlock:
		return "padding"
	default:
		return fmt.Sprintf("EmptyPolicy(%d)", int(p))
	}
}

// ParseEmptyPolicy parses "reject", "none" or "padding".
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	for _, p := range []EmptyPolicy{EmptyReject, EmptyNoBlocks, EmptyPaddingBlock} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid empty image policy %q (want reject, none or padding)", s)
}

// Encoder splits a raw image into UF2 blocks.
// An Encoder holds no state between calls and is safe for concurrent use.
type Encoder struct {
	familyID    uint32
	payloadSize uint32
	writeAlign  uint32
	flags       uint32
	empty       EmptyPolicy
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithFamilyID sets the family identifier written to every block.
// Default: FamilyNRF52840.
func WithFamilyID(id uint32) Option {
	return func(e *Encoder) {
		e.familyID = id
	}
}

// WithPayloadSize sets the payload bytes per block.
// Default: DefaultPayloadSize.
func WithPayloadSize(n uint32) Option {
	return func(e *Encoder) {
		e.payloadSize = n
	}
}

// WithWriteAlign sets the alignment required of the base address.
// Default: DefaultWriteAlign.
func WithWriteAlign(n uint32) Option {
	return func(e *Encoder) {
		e.writeAlign = n
	}
}

// WithEmptyPolicy sets the handling of empty images.
// Default: EmptyReject.
func WithEmptyPolicy(p EmptyPolicy) Option {
	return func(e *Encoder) {
		e.empty = p
	}
}

// WithFlags sets additional flags for every block. FlagFamilyIDPresent is
// always set.
func WithFlags(flags uint32) Option {
	return func(e *Encoder) {
		e.flags = flags
	}
}

// NewEncoder creates an encoder for the nRF52840 UF2 bootloader unless
// options say otherwise.
//
// Example:
//
//	enc := uf2.NewEncoder(
//	    uf2.WithFamilyID(uf2.FamilyNRF52840),
//	    uf2.WithEmptyPolicy(uf2.EmptyReject),
//	)
//	n, err := enc.Encode(f, bin.Data, bin.Base)
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		familyID:    FamilyNRF52840,
		payloadSize: DefaultPayloadSize,
		writeAlign:  DefaultWriteAlign,
		empty:       EmptyReject,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FamilyID returns the family identifier the encoder writes.
func (e *Encoder) FamilyID() uint32 {
	return e.familyID
}

// PayloadSize returns the payload bytes per block.
func (e *Encoder) PayloadSize() uint32 {
	return e.payloadSize
}

// NumBlocks returns the number of blocks an image of size bytes encodes to.
func (e *Encoder) NumBlocks(size int) int {
	if size == 0 {
		if e.empty == EmptyPaddingBlock {
			return 1
		}
		return 0
	}
	p := int(e.payloadSize)
	return (size + p - 1) / p
}

func (e *Encoder) validate(base uint32) error {
	if e.payloadSize == 0 {
		return encodingError("payload size must be positive")
	}
	if e.payloadSize > MaxPayloadSize {
		return encodingError("payload size %d exceeds %d", e.payloadSize, MaxPayloadSize)
	}
	if e.payloadSize%4 != 0 {
		return encodingError("payload size %d is not a multiple of 4", e.payloadSize)
	}
	if e.writeAlign != 0 && base%e.writeAlign != 0 {
		return &AlignmentError{Addr: base, Align: e.writeAlign}
	}
	return nil
}

// Blocks splits data into blocks starting at base. Block i carries
// data[i*P:(i+1)*P] at base+i*P, where P is the payload size; the last
// payload may be shorter.
func (e *Encoder) Blocks(data []byte, base uint32) ([]*Block, error) {
	if err := e.validate(base); err != nil {
		return nil, err
	}

	flags := e.flags | FlagFamilyIDPresent

	if len(data) == 0 {
		switch e.empty {
		case EmptyNoBlocks:
			return nil, nil
		case EmptyPaddingBlock:
			return []*Block{{
				Flags:     flags,
				Addr:      base,
				BlockNo:   0,
				NumBlocks: 1,
				FamilyID:  e.familyID,
			}}, nil
		default:
			return nil, ErrEmptyImage
		}
	}

	n := e.NumBlocks(len(data))
	p := uint64(e.payloadSize)
	if end := uint64(base) + uint64(n)*p; end > 1<<32 {
		return nil, encodingError("image at 0x%08X with %d blocks ends at 0x%X, beyond the 32-bit address space", base, n, end)
	}

	blocks := make([]*Block, n)
	for i := range blocks {
		start := uint64(i) * p
		end := start + p
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}

		blocks[i] = &Block{
			Flags:     flags,
			Addr:      base + uint32(start),
			BlockNo:   uint32(i),
			NumBlocks: uint32(n),
			FamilyID:  e.familyID,
			Payload:   data[start:end],
		}
	}

	return blocks, nil
}

// Encode writes the encoded blocks of data to w and returns the number of
// bytes written, always a multiple of BlockSize. Output depends only on the
// inputs and the encoder options.
func (e *Encoder) Encode(w io.Writer, data []byte, base uint32) (int, error) {
	blocks, err := e.Blocks(data, base)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, BlockSize)
	written := 0
	for _, b := range blocks {
		for i := range buf {
			buf[i] = 0
		}
		b.put(buf)

		n, err := w.Write(buf)
		written += n
		if err != nil {
			return written, fmt.Errorf("failed to write block %d: %w", b.BlockNo, err)
		}
	}

	return written, nil
}
