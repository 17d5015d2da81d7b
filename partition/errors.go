package partition

import (
	"fmt"
)

// OverlapError indicates that two regions overlap, that a reserved window
// falls outside its memory window, or that the reserved windows leave no room
// for the application.
type OverlapError struct {
	A Region
	B Region

	// Reason describes the violated constraint
	Reason string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("region overlap: %s: %s [0x%08X-0x%08X) and %s [0x%08X-0x%08X)",
		e.Reason, e.A.Name, e.A.Origin, e.A.End(), e.B.Name, e.B.Origin, e.B.End())
}

// AlignmentError indicates that a boundary is not a multiple of the device
// granularity.
type AlignmentError struct {
	// What names the misaligned value (e.g. "FLASH origin")
	What string

	Value uint32

	// Granularity is the required alignment; zero means the value itself
	// must be a power of two
	Granularity uint32
}

func (e *AlignmentError) Error() string {
	if e.Granularity == 0 {
		return fmt.Sprintf("alignment violation: %s 0x%X is not a power of two", e.What, e.Value)
	}
	return fmt.Sprintf("alignment violation: %s 0x%08X is not a multiple of 0x%X",
		e.What, e.Value, e.Granularity)
}

// MismatchError indicates that a linker memory map disagrees with the
// partition map computed from the device profile.
type MismatchError struct {
	// Name is the region name
	Name string

	// Want is the computed region; zero if the region is unexpected
	Want Region

	// Got is the declared region; zero if the region is missing
	Got Region
}

func (e *MismatchError) Error() string {
	switch {
	case e.Got.Name == "":
		return fmt.Sprintf("linker map mismatch: region %s is missing (want ORIGIN = 0x%08X, LENGTH = 0x%08X)",
			e.Name, e.Want.Origin, e.Want.Length)
	case e.Want.Name == "":
		return fmt.Sprintf("linker map mismatch: unexpected region %s", e.Name)
	default:
		return fmt.Sprintf("linker map mismatch: region %s has ORIGIN = 0x%08X, LENGTH = 0x%08X, want ORIGIN = 0x%08X, LENGTH = 0x%08X",
			e.Name, e.Got.Origin, e.Got.Length, e.Want.Origin, e.Want.Length)
	}
}
