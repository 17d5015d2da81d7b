package partition

import (
	"fmt"
)

// Region names used in a partition map. FLASH and RAM are the names
// cortex-m-rt expects in memory.x.
const (
	RegionSoftDevice    = "softdevice"
	RegionFlash         = "FLASH"
	RegionBootloader    = "bootloader"
	RegionSoftDeviceRAM = "softdevice_ram"
	RegionRAM           = "RAM"
)

// Map is a validated partition map for one device profile.
// A Map is immutable once created and safe for concurrent use.
type Map struct {
	profile Profile
	regions []Region
}

// NewMap derives the application regions from the profile's reserved
// windows and validates the result:
//  1. The profile constants are sane (Profile.Validate)
//  2. Every reserved window lies inside its memory window
//  3. The reserved windows leave room for the application
//  4. Every flash boundary is page aligned, every RAM boundary write aligned
//  5. No two regions overlap
//
// Example:
//
//	m, err := partition.NewMap(profile)
//	if err != nil {
//	    return err
//	}
func NewMap(p Profile) (*Map, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sd := named(p.SoftDevice, RegionSoftDevice)
	bl := named(p.Bootloader, RegionBootloader)
	sdRAM := named(p.SoftDeviceRAM, RegionSoftDeviceRAM)

	if !sd.Empty() && !p.Flash.Contains(uint64(sd.Origin), uint64(sd.Length)) {
		return nil, &OverlapError{A: sd, B: p.Flash, Reason: "softdevice window outside flash"}
	}
	if !bl.Empty() && !p.Flash.Contains(uint64(bl.Origin), uint64(bl.Length)) {
		return nil, &OverlapError{A: bl, B: p.Flash, Reason: "bootloader window outside flash"}
	}
	if !sdRAM.Empty() && !p.RAM.Contains(uint64(sdRAM.Origin), uint64(sdRAM.Length)) {
		return nil, &OverlapError{A: sdRAM, B: p.RAM, Reason: "softdevice RAM window outside RAM"}
	}

	// The application sits between the SoftDevice and the bootloader. An
	// empty reserved window leaves that end of flash to the application.
	flashStart := uint64(p.Flash.Origin)
	if !sd.Empty() {
		flashStart = sd.End()
	}
	flashEnd := p.Flash.End()
	if !bl.Empty() {
		flashEnd = uint64(bl.Origin)
	}
	if flashStart >= flashEnd {
		return nil, &OverlapError{A: sd, B: bl, Reason: "no room for application flash"}
	}

	ramStart := uint64(p.RAM.Origin)
	if !sdRAM.Empty() {
		ramStart = sdRAM.End()
	}
	if ramStart >= p.RAM.End() {
		return nil, &OverlapError{A: sdRAM, B: p.RAM, Reason: "no room for application RAM"}
	}

	flash := Region{
		Name:   RegionFlash,
		Origin: uint32(flashStart),
		Length: uint32(flashEnd - flashStart),
		Perm:   PermRead | PermExec,
	}
	ram := Region{
		Name:   RegionRAM,
		Origin: uint32(ramStart),
		Length: uint32(p.RAM.End() - ramStart),
		Perm:   PermRead | PermWrite | PermExec,
	}

	for _, r := range []Region{sd, flash, bl} {
		if err := checkAligned(r, p.PageSize); err != nil {
			return nil, err
		}
	}
	for _, r := range []Region{sdRAM, ram} {
		if err := checkAligned(r, p.WriteSize); err != nil {
			return nil, err
		}
	}

	var regions []Region
	for _, r := range []Region{sd, flash, bl, sdRAM, ram} {
		if !r.Empty() {
			regions = append(regions, r)
		}
	}

	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			if regions[i].Overlaps(regions[j]) {
				return nil, &OverlapError{A: regions[i], B: regions[j], Reason: "regions overlap"}
			}
		}
	}

	return &Map{profile: p, regions: regions}, nil
}

func named(r Region, name string) Region {
	r.Name = name
	return r
}

func checkAligned(r Region, granularity uint32) error {
	if r.Empty() {
		return nil
	}
	if r.Origin%granularity != 0 {
		return &AlignmentError{What: r.Name + " origin", Value: r.Origin, Granularity: granularity}
	}
	if r.Length%granularity != 0 {
		return &AlignmentError{What: r.Name + " length", Value: r.Length, Granularity: granularity}
	}
	return nil
}

// Profile returns the device profile the map was derived from.
func (m *Map) Profile() Profile {
	return m.profile
}

// Flash returns the application flash region.
func (m *Map) Flash() Region {
	r, _ := m.Region(RegionFlash)
	return r
}

// RAM returns the application RAM region.
func (m *Map) RAM() Region {
	r, _ := m.Region(RegionRAM)
	return r
}

// Region returns the region with the given name.
func (m *Map) Region(name string) (Region, bool) {
	return find(m.regions, name)
}

// Regions returns all non-empty regions in address order within each memory
// window: flash regions first, then RAM regions.
func (m *Map) Regions() []Region {
	return append([]Region(nil), m.regions...)
}

// Reserved returns the regions the application must not touch.
func (m *Map) Reserved() []Region {
	var reserved []Region
	for _, r := range m.regions {
		if r.Name != RegionFlash && r.Name != RegionRAM {
			reserved = append(reserved, r)
		}
	}
	return reserved
}

// Check compares a declared linker memory map against the computed one.
// FLASH and RAM must match exactly. Additional declared regions are allowed
// as long as they do not overlap any region of the map.
func (m *Map) Check(declared []Region) error {
	seen := make(map[string]bool)

	for _, name := range []string{RegionFlash, RegionRAM} {
		want, _ := m.Region(name)

		got, ok := find(declared, name)
		if !ok {
			return &MismatchError{Name: name, Want: want}
		}
		if got.Origin != want.Origin || got.Length != want.Length {
			return &MismatchError{Name: name, Want: want, Got: got}
		}
		seen[name] = true
	}

	for _, d := range declared {
		if seen[d.Name] {
			continue
		}
		if d.End() > 1<<32 {
			return fmt.Errorf("region %s exceeds the 32-bit address space", d.Name)
		}
		for _, r := range m.regions {
			if d.Overlaps(r) {
				return &OverlapError{A: d, B: r, Reason: "declared region overlaps partition map"}
			}
		}
	}

	return nil
}

func find(regions []Region, name string) (Region, bool) {
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}
