package uf2

// Block structure constants. All multi-byte fields are little-endian.
const (
	// MagicStart0 is the first magic number ("UF2\n")
	MagicStart0 = 0x0A324655

	// MagicStart1 is the second magic number
	MagicStart1 = 0x9E5D5157

	// MagicEnd is the final magic number
	MagicEnd = 0x0AB16F30

	// BlockSize is the size of one encoded block, one mass-storage sector
	BlockSize = 512

	// HeaderSize is the size of the block header:
	// MAGIC0(4) + MAGIC1(4) + FLAGS(4) + ADDR(4) + LEN(4) + SEQ(4) + TOTAL(4) + FAMILY(4)
	HeaderSize = 32

	// DataSize is the size of the data area
	DataSize = 476

	// MaxPayloadSize is the largest payload a block can carry
	MaxPayloadSize = DataSize

	// DefaultPayloadSize is the payload per block the UF2 bootloader expects
	DefaultPayloadSize = 256

	// DefaultWriteAlign is the NVMC write granularity
	DefaultWriteAlign = 4
)

// Field offsets inside a block.
const (
	offMagic0    = 0
	offMagic1    = 4
	offFlags     = 8
	offAddr      = 12
	offPayload   = 16
	offBlockNo   = 20
	offNumBlocks = 24
	offFamilyID  = 28
	offData      = HeaderSize
	offMagicEnd  = BlockSize - 4
)

// Block flags.
const (
	// FlagNotMainFlash marks a block that must not be written to main flash
	FlagNotMainFlash = 0x00000001

	// FlagFileContainer marks a block that carries a file, not flash contents
	FlagFileContainer = 0x00001000

	// FlagFamilyIDPresent means the family ID field is valid
	FlagFamilyIDPresent = 0x00002000

	// FlagMD5Present means the data area ends with an MD5 checksum
	FlagMD5Present = 0x00004000

	// FlagExtensionTags means extension tags follow the payload
	FlagExtensionTags = 0x00008000
)
