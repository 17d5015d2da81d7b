package uf2

import (
	"fmt"
	"sort"
)

// Family identifiers for devices commonly flashed with UF2 bootloaders.
const (
	// FamilyNRF52840 identifies nRF52840 application images
	FamilyNRF52840 = 0xADA52840

	// FamilyNRF52833 identifies nRF52833 application images
	FamilyNRF52833 = 0x621E937A

	// FamilyNRF52 identifies generic nRF52 images
	FamilyNRF52 = 0x1B57745F
)

// Families maps known family identifiers to device names.
var Families = map[uint32]string{
	FamilyNRF52840: "nRF52840",
	FamilyNRF52833: "nRF52833",
	FamilyNRF52:    "nRF52",
	0x68ED2B88:     "SAMD21",
	0x55114460:     "SAMD51",
	0x57755A57:     "STM32F4",
	0xE48BFF56:     "RP2040",
	0xBFDD4EEE:     "ESP32S2",
}

// FamilyName returns the device name for a family identifier, or its hex
// form if the family is unknown.
func FamilyName(id uint32) string {
	if name, ok := Families[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", id)
}

// LookupFamily returns the identifier for a device name such as "nRF52840".
func LookupFamily(name string) (uint32, bool) {
	for id, n := range Families {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// FamilyNames returns the known device names in sorted order.
func FamilyNames() []string {
	names := make([]string, 0, len(Families))
	for _, n := range Families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
