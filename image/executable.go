package image

import (
	"sort"
	"strings"
)

// SectionKind classifies a section by how it is placed on the device.
type SectionKind int

const (
	// KindOther is a non-allocated section that is neither code nor debug info
	KindOther SectionKind = iota

	// KindCode is executable, loaded into flash
	KindCode

	// KindROData is read-only data, loaded into flash
	KindROData

	// KindData is initialized read-write data, stored in flash and copied
	// to RAM at startup
	KindData

	// KindBSS is zero-initialized RAM with no bytes in the image
	KindBSS

	// KindDebug is debug information, never loaded
	KindDebug
)

// String returns a short lowercase name for the kind.
func (k SectionKind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindROData:
		return "rodata"
	case KindData:
		return "data"
	case KindBSS:
		return "bss"
	case KindDebug:
		return "debug"
	default:
		return "other"
	}
}

// Loadable reports whether sections of this kind contribute bytes to the
// flash image.
func (k SectionKind) Loadable() bool {
	return k == KindCode || k == KindROData || k == KindData
}

// Allocated reports whether sections of this kind occupy device memory.
func (k SectionKind) Allocated() bool {
	return k.Loadable() || k == KindBSS
}

// Section is one section of a linked executable.
type Section struct {
	// Name is the section name (e.g. ".text")
	Name string

	// Kind is the placement classification
	Kind SectionKind

	// Addr is the run-time (virtual) address
	Addr uint32

	// LMA is the load address; for .data it lies in flash while Addr lies
	// in RAM
	LMA uint32

	// Size is the section size in bytes
	Size uint32

	// Data holds the section contents. Nil for bss and non-loadable
	// sections.
	Data []byte
}

// End returns the first load address past the section.
func (s *Section) End() uint64 {
	return uint64(s.LMA) + uint64(s.Size)
}

// SymbolKind classifies a symbol.
type SymbolKind int

const (
	// SymbolOther is any symbol that is not a function or object
	SymbolOther SymbolKind = iota

	// SymbolFunc is a function entry point
	SymbolFunc

	// SymbolObject is a data object
	SymbolObject
)

// Symbol is a named address from the executable's symbol table.
type Symbol struct {
	// Name is the raw, possibly mangled, symbol name
	Name string

	// Value is the symbol address. The Thumb bit is cleared for functions.
	Value uint32

	// Size is the symbol size in bytes, zero if unknown
	Size uint32

	Kind SymbolKind

	// Section is the name of the section the symbol is defined in
	Section string
}

// Executable is the output of the link step: sections, symbols and the
// entry point.
type Executable struct {
	// Path is the file the executable was loaded from; empty for in-memory
	// executables
	Path string

	// Entry is the reset entry point
	Entry uint32

	Sections []*Section
	Symbols  []Symbol
}

// Section returns the section with the given name, or nil.
func (e *Executable) Section(name string) *Section {
	for _, s := range e.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Loadable returns the sections that contribute bytes to the flash image,
// ordered by ascending load address. Empty sections are skipped.
func (e *Executable) Loadable() []*Section {
	var out []*Section
	for _, s := range e.Sections {
		if s.Kind.Loadable() && s.Size > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LMA < out[j].LMA })
	return out
}

// SymbolsIn returns the function and object symbols inside section s,
// ordered by address.
func (e *Executable) SymbolsIn(s *Section) []Symbol {
	var out []Symbol
	for _, sym := range e.Symbols {
		if sym.Kind == SymbolOther || strings.HasPrefix(sym.Name, "$") {
			continue
		}
		if uint64(sym.Value) >= uint64(s.Addr) && uint64(sym.Value) < uint64(s.Addr)+uint64(s.Size) {
			out = append(out, sym)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
