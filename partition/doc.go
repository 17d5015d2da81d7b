// Package partition describes how a device's flash and RAM are divided between
// the SoftDevice, the bootloader and the application.
//
// # Device Profiles
//
// A Profile carries every device-specific constant the pipeline needs: the
// physical flash and RAM windows, the windows reserved by the SoftDevice and
// the bootloader, the flash page size, the write granularity and the UF2
// family identifier. Built-in profiles are looked up by name:
//
//	p, err := partition.Lookup("nrf52840-s140v6")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Partition Map
//
// NewMap derives the application regions as the complement of the reserved
// windows and validates the result before anything is linked:
//
//	FLASH = [softdevice end, bootloader start)
//	RAM   = [ram base + softdevice RAM, ram top)
//
// Example:
//
//	m, err := partition.NewMap(p)
//	if err != nil {
//	    log.Fatal(err) // *OverlapError or *AlignmentError
//	}
//	fmt.Printf("application flash: 0x%08X-0x%08X\n", m.Flash().Origin, m.Flash().End())
//
// # Linker Scripts
//
// WriteLinkerScript renders the map as a memory.x file for cortex-m-rt based
// builds. ParseLinkerScript reads one back so that a checked-in memory.x can
// be compared against the profile with Map.Check.
//
// # Error Handling
//
// Validation failures are reported with structured error types:
//   - OverlapError: regions overlap or leave no room for the application
//   - AlignmentError: a boundary is not aligned to the device granularity
//   - MismatchError: a linker script disagrees with the computed map
package partition
