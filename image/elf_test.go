package image

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testText = []byte{0x00, 0xBF, 0x00, 0xBF, 0xFE, 0xE7, 0x70, 0x47}
	testData = []byte{0xDE, 0xAD, 0xBE, 0xEF}
)

// buildELF assembles a minimal ARM executable: .text in flash, .data in RAM
// loaded right after .text, and a .bss.
func buildELF(t *testing.T, machine elf.Machine) []byte {
	t.Helper()

	const (
		textOff  = 0x100
		dataOff  = 0x108
		strOff   = 0x10C
		shOff    = 0x130
		textAddr = 0x26000
		ramAddr  = 0x20000000
	)
	shstrtab := []byte("\x00.text\x00.data\x00.bss\x00.shstrtab\x00")

	var buf bytes.Buffer
	write := func(v interface{}) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	pad := func(off int) {
		require.LessOrEqual(t, buf.Len(), off)
		buf.Write(make([]byte, off-buf.Len()))
	}

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     textAddr | 1,
		Phoff:     52,
		Shoff:     shOff,
		Ehsize:    52,
		Phentsize: 32,
		Phnum:     2,
		Shentsize: 40,
		Shnum:     5,
		Shstrndx:  4,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	write(hdr)

	write(elf.Prog32{Type: uint32(elf.PT_LOAD), Off: textOff, Vaddr: textAddr, Paddr: textAddr,
		Filesz: uint32(len(testText)), Memsz: uint32(len(testText)), Flags: uint32(elf.PF_R | elf.PF_X), Align: 4})
	write(elf.Prog32{Type: uint32(elf.PT_LOAD), Off: dataOff, Vaddr: ramAddr, Paddr: textAddr + uint32(len(testText)),
		Filesz: uint32(len(testData)), Memsz: uint32(len(testData)) + 16, Flags: uint32(elf.PF_R | elf.PF_W), Align: 4})

	pad(textOff)
	buf.Write(testText)
	pad(dataOff)
	buf.Write(testData)
	pad(strOff)
	buf.Write(shstrtab)
	pad(shOff)

	write(elf.Section32{})
	write(elf.Section32{Name: 1, Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Addr: textAddr, Off: textOff, Size: uint32(len(testText)), Addralign: 2})
	write(elf.Section32{Name: 7, Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_WRITE),
		Addr: ramAddr, Off: dataOff, Size: uint32(len(testData)), Addralign: 4})
	write(elf.Section32{Name: 13, Type: uint32(elf.SHT_NOBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_WRITE),
		Addr: ramAddr + uint32(len(testData)), Off: strOff, Size: 16, Addralign: 4})
	write(elf.Section32{Name: 18, Type: uint32(elf.SHT_STRTAB), Off: strOff, Size: uint32(len(shstrtab)), Addralign: 1})

	return buf.Bytes()
}

func TestRead(t *testing.T) {
	exe, err := Read(bytes.NewReader(buildELF(t, elf.EM_ARM)))
	require.NoError(t, err)

	assert.Equal(t, uint32(0x26001), exe.Entry)
	assert.Empty(t, exe.Symbols)

	text := exe.Section(".text")
	require.NotNil(t, text)
	assert.Equal(t, KindCode, text.Kind)
	assert.Equal(t, uint32(0x26000), text.Addr)
	assert.Equal(t, uint32(0x26000), text.LMA)
	assert.Equal(t, testText, text.Data)

	data := exe.Section(".data")
	require.NotNil(t, data)
	assert.Equal(t, KindData, data.Kind)
	assert.Equal(t, uint32(0x20000000), data.Addr)
	assert.Equal(t, uint32(0x26008), data.LMA)
	assert.Equal(t, testData, data.Data)

	bss := exe.Section(".bss")
	require.NotNil(t, bss)
	assert.Equal(t, KindBSS, bss.Kind)
	assert.Equal(t, uint32(16), bss.Size)
	assert.Nil(t, bss.Data)

	strtab := exe.Section(".shstrtab")
	require.NotNil(t, strtab)
	assert.Equal(t, KindOther, strtab.Kind)
}

func TestReadExtract(t *testing.T) {
	exe, err := Read(bytes.NewReader(buildELF(t, elf.EM_ARM)))
	require.NoError(t, err)

	m := testMap(t)
	bin, err := Extract(exe, m.Flash())
	require.NoError(t, err)

	assert.Equal(t, uint32(0x26000), bin.Base)
	assert.Equal(t, append(append([]byte{}, testText...), testData...), bin.Data)
}

func TestReadWrongMachine(t *testing.T) {
	_, err := Read(bytes.NewReader(buildELF(t, elf.EM_RISCV)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected EM_ARM")
}

func TestReadGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not an executable")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ELF file")
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("/nonexistent/app.elf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open executable")
}
