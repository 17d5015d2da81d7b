package uf2

import (
	"errors"
	"fmt"
)

// ErrEmptyImage is returned when an empty image is encoded under the
// EmptyReject policy.
var ErrEmptyImage = errors.New("empty image")

// AlignmentError indicates that the base address is not a multiple of the
// write granularity.
type AlignmentError struct {
	// Addr is the misaligned base address
	Addr uint32

	// Align is the required alignment in bytes
	Align uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment violation: base address 0x%08X is not a multiple of %d", e.Addr, e.Align)
}

// EncodingError indicates that an image cannot be expressed as UF2 blocks,
// or that a block or file is malformed.
type EncodingError struct {
	// Block is the index of the offending block, -1 if not block specific
	Block int

	// Reason describes the failure
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("encoding failure: %s", e.Reason)
	}
	return fmt.Sprintf("encoding failure: block %d: %s", e.Block, e.Reason)
}

func encodingError(format string, args ...interface{}) *EncodingError {
	return &EncodingError{Block: -1, Reason: fmt.Sprintf(format, args...)}
}

// IsEncodingError returns true if the error is an EncodingError.
func IsEncodingError(err error) bool {
	var e *EncodingError
	return errors.As(err, &e)
}
