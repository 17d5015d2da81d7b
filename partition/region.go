package partition

import (
	"fmt"
	"strings"
)

// Perm is a set of access permissions for a region.
type Perm uint8

// Region permissions, in linker script attribute order.
const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
)

// String returns the linker script attribute form, e.g. "rx" or "rwx".
func (p Perm) String() string {
	var b strings.Builder
	if p&PermRead != 0 {
		b.WriteByte('r')
	}
	if p&PermWrite != 0 {
		b.WriteByte('w')
	}
	if p&PermExec != 0 {
		b.WriteByte('x')
	}
	return b.String()
}

// ParsePerm parses linker script attributes such as "rx" or "rwx".
func ParsePerm(s string) (Perm, error) {
	var p Perm
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			p |= PermRead
		case 'w':
			p |= PermWrite
		case 'x':
			p |= PermExec
		case 'a', 'i', 'l', '!':
			// Allocation attributes carry no access information.
		default:
			return 0, fmt.Errorf("invalid region attribute %q", c)
		}
	}
	return p, nil
}

// Region is a named address window.
type Region struct {
	// Name is the linker region name (e.g. "FLASH", "RAM")
	Name string

	// Origin is the first address of the region
	Origin uint32

	// Length is the size of the region in bytes
	Length uint32

	// Perm is the access permission set
	Perm Perm
}

// End returns the first address past the region.
// It is computed in 64 bits so a region ending at the top of the address
// space does not wrap.
func (r Region) End() uint64 {
	return uint64(r.Origin) + uint64(r.Length)
}

// Empty reports whether the region has zero length.
func (r Region) Empty() bool {
	return r.Length == 0
}

// Contains reports whether [addr, addr+size) lies entirely inside the region.
func (r Region) Contains(addr uint64, size uint64) bool {
	return addr >= uint64(r.Origin) && addr+size <= r.End()
}

// Overlaps reports whether two non-empty regions share any address.
func (r Region) Overlaps(o Region) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return uint64(r.Origin) < o.End() && uint64(o.Origin) < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s [0x%08X-0x%08X)", r.Name, r.Origin, r.End())
}
