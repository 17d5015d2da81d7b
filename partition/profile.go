package partition

import (
	"fmt"
	"sort"
)

// Memory window constants shared by the nRF52 family.
const (
	// FlashBase is the start of on-chip flash
	FlashBase = 0x00000000

	// RAMBase is the start of on-chip RAM
	RAMBase = 0x20000000

	// PageSize is the nRF52 flash erase page size (4 KiB)
	PageSize = 0x1000

	// WriteSize is the NVMC write granularity (one 32-bit word)
	WriteSize = 4
)

// UF2 packaging constants fixed by the bootloader's flashing protocol.
const (
	// PayloadSize is the number of application bytes carried per UF2 block
	PayloadSize = 256

	// BlockSize is the size of one encoded UF2 block
	BlockSize = 512

	// MaxPayloadSize is the data area of a block, BlockSize less the
	// 32-byte header and the final magic
	MaxPayloadSize = BlockSize - 32 - 4
)

// UF2 family identifiers for the supported devices.
const (
	// FamilyNRF52840 identifies nRF52840 images
	FamilyNRF52840 = 0xADA52840

	// FamilyNRF52833 identifies nRF52833 images
	FamilyNRF52833 = 0x621E937A
)

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "nrf52840-s140v6"

// Profile holds the device-specific constants for one bootloader and
// SoftDevice combination.
type Profile struct {
	// Name identifies the profile
	Name string

	// Flash is the physical flash window
	Flash Region

	// RAM is the physical RAM window
	RAM Region

	// SoftDevice is the low flash window owned by the MBR and SoftDevice.
	// It must start at the flash base.
	SoftDevice Region

	// SoftDeviceRAM is the low RAM window owned by the SoftDevice.
	// Zero length when the application does not enable the SoftDevice.
	SoftDeviceRAM Region

	// Bootloader is the high flash window owned by the bootloader.
	// It must end at the flash top.
	Bootloader Region

	// PageSize is the flash erase granularity; flash boundaries must be
	// multiples of it
	PageSize uint32

	// WriteSize is the minimum write granularity; image base addresses and
	// RAM boundaries must be multiples of it
	WriteSize uint32

	// FamilyID is the UF2 family identifier the bootloader accepts
	FamilyID uint32

	// PayloadSize is the UF2 payload size per block
	PayloadSize uint32

	// BlockSize is the encoded UF2 block size; only 512 is accepted
	BlockSize uint32
}

var profiles = map[string]Profile{
	"nrf52840-s140v6": nrf52840("nrf52840-s140v6", 0x26000, 0),
	"nrf52840-s140v7": nrf52840("nrf52840-s140v7", 0x27000, 0x6000),
	"nrf52833-s140v7": {
		Name:          "nrf52833-s140v7",
		Flash:         Region{Name: "flash", Origin: FlashBase, Length: 0x80000, Perm: PermRead | PermExec},
		RAM:           Region{Name: "ram", Origin: RAMBase, Length: 0x20000, Perm: PermRead | PermWrite | PermExec},
		SoftDevice:    Region{Name: "softdevice", Origin: FlashBase, Length: 0x27000, Perm: PermRead | PermExec},
		SoftDeviceRAM: Region{Name: "softdevice_ram", Origin: RAMBase, Length: 0x6000, Perm: PermRead | PermWrite},
		Bootloader:    Region{Name: "bootloader", Origin: 0x74000, Length: 0xC000, Perm: PermRead | PermExec},
		PageSize:      PageSize,
		WriteSize:     WriteSize,
		FamilyID:      FamilyNRF52833,
		PayloadSize:   PayloadSize,
		BlockSize:     BlockSize,
	},
}

func nrf52840(name string, softDeviceEnd, softDeviceRAM uint32) Profile {
	return Profile{
		Name:          name,
		Flash:         Region{Name: "flash", Origin: FlashBase, Length: 0x100000, Perm: PermRead | PermExec},
		RAM:           Region{Name: "ram", Origin: RAMBase, Length: 0x40000, Perm: PermRead | PermWrite | PermExec},
		SoftDevice:    Region{Name: "softdevice", Origin: FlashBase, Length: softDeviceEnd, Perm: PermRead | PermExec},
		SoftDeviceRAM: Region{Name: "softdevice_ram", Origin: RAMBase, Length: softDeviceRAM, Perm: PermRead | PermWrite},
		Bootloader:    Region{Name: "bootloader", Origin: 0xF4000, Length: 0xC000, Perm: PermRead | PermExec},
		PageSize:      PageSize,
		WriteSize:     WriteSize,
		FamilyID:      FamilyNRF52840,
		PayloadSize:   PayloadSize,
		BlockSize:     BlockSize,
	}
}

// Lookup returns the built-in profile with the given name.
//
// Example:
//
//	p, err := partition.Lookup("nrf52840-s140v6")
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown device profile %q (known: %v)", name, Profiles())
	}
	return p, nil
}

// Profiles returns the names of the built-in profiles in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the profile's own constants. It does not look at how the
// windows relate to each other; NewMap does that.
func (p Profile) Validate() error {
	if !isPowerOfTwo(p.PageSize) {
		return &AlignmentError{What: "page size", Value: p.PageSize}
	}
	if !isPowerOfTwo(p.WriteSize) {
		return &AlignmentError{What: "write size", Value: p.WriteSize}
	}
	if p.WriteSize > p.PageSize {
		return fmt.Errorf("profile %s: write size 0x%X exceeds page size 0x%X", p.Name, p.WriteSize, p.PageSize)
	}
	if p.Flash.Empty() {
		return fmt.Errorf("profile %s: flash window is empty", p.Name)
	}
	if p.RAM.Empty() {
		return fmt.Errorf("profile %s: RAM window is empty", p.Name)
	}
	if p.Flash.End() > 1<<32 || p.RAM.End() > 1<<32 {
		return fmt.Errorf("profile %s: memory window exceeds the 32-bit address space", p.Name)
	}
	if p.BlockSize != BlockSize {
		return fmt.Errorf("profile %s: invalid block size %d, UF2 blocks are %d bytes", p.Name, p.BlockSize, BlockSize)
	}
	if p.PayloadSize == 0 || p.PayloadSize > MaxPayloadSize {
		return fmt.Errorf("profile %s: invalid payload size %d, must be 1-%d bytes", p.Name, p.PayloadSize, MaxPayloadSize)
	}
	if p.PayloadSize%WriteSize != 0 {
		return &AlignmentError{What: "payload size", Value: p.PayloadSize, Granularity: WriteSize}
	}
	return nil
}

func isPowerOfTwo(x uint32) bool {
	return x != 0 && x&(x-1) == 0
}
