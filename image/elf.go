package image

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Open loads a linked ARM executable from an ELF file.
//
// Example:
//
//	exe, err := image.Open("target/thumbv7em-none-eabihf/release/app")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("entry: 0x%08X\n", exe.Entry)
func Open(path string) (*Executable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open executable: %w", err)
	}
	defer func() { _ = f.Close() }()

	exe, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	exe.Path = path
	return exe, nil
}

// Read loads a linked ARM executable from any io.ReaderAt.
func Read(r io.ReaderAt) (*Executable, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("invalid ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("unsupported ELF class %s, expected ELFCLASS32", f.Class)
	}
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("unsupported machine %s, expected EM_ARM", f.Machine)
	}

	exe := &Executable{Entry: uint32(f.Entry)}

	for _, sec := range f.Sections {
		if sec.Type == elf.SHT_NULL {
			continue
		}

		s := &Section{
			Name: sec.Name,
			Kind: classify(sec),
			Addr: uint32(sec.Addr),
			LMA:  uint32(loadAddress(f, sec)),
			Size: uint32(sec.Size),
		}

		if s.Kind.Loadable() {
			data, err := sec.Data()
			if err != nil {
				return nil, fmt.Errorf("failed to read section %s: %w", sec.Name, err)
			}
			s.Data = data
		}

		exe.Sections = append(exe.Sections, s)
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("failed to read symbols: %w", err)
	}
	for _, sym := range syms {
		exe.Symbols = append(exe.Symbols, convertSymbol(f, sym))
	}

	return exe, nil
}

func classify(sec *elf.Section) SectionKind {
	if sec.Flags&elf.SHF_ALLOC == 0 {
		if strings.HasPrefix(sec.Name, ".debug") || strings.HasPrefix(sec.Name, ".zdebug") {
			return KindDebug
		}
		return KindOther
	}

	switch {
	case sec.Type == elf.SHT_NOBITS:
		return KindBSS
	case sec.Flags&elf.SHF_EXECINSTR != 0:
		return KindCode
	case sec.Flags&elf.SHF_WRITE != 0:
		return KindData
	default:
		return KindROData
	}
}

// loadAddress maps a section to its load address through the PT_LOAD
// segment that holds its file contents. Sections outside every segment load
// at their run-time address.
func loadAddress(f *elf.File, sec *elf.Section) uint64 {
	if sec.Flags&elf.SHF_ALLOC == 0 {
		return sec.Addr
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}

		if sec.Type != elf.SHT_NOBITS && prog.Filesz > 0 &&
			sec.Offset >= prog.Off && sec.Offset+sec.Size <= prog.Off+prog.Filesz {
			return prog.Paddr + (sec.Offset - prog.Off)
		}

		if sec.Type == elf.SHT_NOBITS &&
			sec.Addr >= prog.Vaddr && sec.Addr+sec.Size <= prog.Vaddr+prog.Memsz {
			return prog.Paddr + (sec.Addr - prog.Vaddr)
		}
	}

	return sec.Addr
}

func convertSymbol(f *elf.File, sym elf.Symbol) Symbol {
	s := Symbol{
		Name:  sym.Name,
		Value: uint32(sym.Value),
		Size:  uint32(sym.Size),
	}

	switch elf.ST_TYPE(sym.Info) {
	case elf.STT_FUNC:
		s.Kind = SymbolFunc
		s.Value &^= 1
	case elf.STT_OBJECT:
		s.Kind = SymbolObject
	}

	if idx := int(sym.Section); sym.Section < elf.SHN_LORESERVE && idx < len(f.Sections) {
		s.Section = f.Sections[idx].Name
	}

	return s
}
