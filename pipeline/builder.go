package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moffa90/nrfpack/image"
	"github.com/moffa90/nrfpack/partition"
	"github.com/moffa90/nrfpack/report"
	"github.com/moffa90/nrfpack/uf2"
)

// Linker compiles and links the application against a partition map.
type Linker interface {
	Link(ctx context.Context, m *partition.Map) (*image.Executable, error)
}

// Artifacts describes the outputs of a build.
type Artifacts struct {
	Map        *partition.Map
	Executable *image.Executable
	Binary     *image.Binary

	// BinPath, HexPath and UF2Path are the written files; HexPath is empty
	// unless Intel HEX output is enabled
	BinPath string
	HexPath string
	UF2Path string

	// Blocks is the number of UF2 blocks written
	Blocks int
}

// Builder runs the build pipeline for one device profile:
// validate the partition map, link, report, extract the raw binary and
// package it as UF2.
//
// A Builder holds no state between calls. Stages run strictly in sequence.
type Builder struct {
	profile partition.Profile
	config  Config
}

// New creates a Builder for the given device profile.
//
// Example:
//
//	profile, _ := partition.Lookup("nrf52840-s140v6")
//	b := pipeline.New(profile,
//	    pipeline.WithLinker(linker),
//	    pipeline.WithOutputDir("build"),
//	)
//	art, err := b.Build(context.Background())
func New(profile partition.Profile, opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Builder{
		profile: profile,
		config:  cfg,
	}
}

// Profile returns the device profile the builder targets.
func (b *Builder) Profile() partition.Profile {
	return b.profile
}

// Path returns the output path for an artifact extension such as ".uf2".
func (b *Builder) Path(ext string) string {
	return filepath.Join(b.config.OutputDir, b.config.Name+ext)
}

// Validate builds the partition map. It runs before anything is linked so
// that a bad profile never reaches the toolchain.
func (b *Builder) Validate() (*partition.Map, error) {
	m, err := partition.NewMap(b.profile)
	if err != nil {
		return nil, stageError(StageValidate, err)
	}

	flash, ram := m.Flash(), m.RAM()
	b.logDebug("partition map",
		"profile", b.profile.Name,
		"flash", fmt.Sprintf("0x%08X-0x%08X", flash.Origin, flash.End()),
		"ram", fmt.Sprintf("0x%08X-0x%08X", ram.Origin, ram.End()),
	)

	return m, nil
}

// Link runs the configured Linker against m.
func (b *Builder) Link(ctx context.Context, m *partition.Map) (*image.Executable, error) {
	if b.config.Linker == nil {
		return nil, stageError(StageLink, ErrNoLinker)
	}

	exe, err := b.config.Linker.Link(ctx, m)
	if err != nil {
		return nil, stageError(StageLink, err)
	}

	b.logDebug("linked", "path", exe.Path, "entry", fmt.Sprintf("0x%08X", exe.Entry), "sections", len(exe.Sections))
	return exe, nil
}

// Report writes the configured size summary and disassembly listing.
// Reports are diagnostics only: failures are logged, never returned.
func (b *Builder) Report(exe *image.Executable, m *partition.Map) {
	if b.config.SizeReport != nil {
		if err := report.WriteSize(b.config.SizeReport, report.Size(exe), m); err != nil {
			b.logError("size report failed", "error", err)
		}
	}

	if b.config.Disassembler != nil && b.config.Listing != nil {
		if err := report.WriteListing(b.config.Listing, exe, b.config.Disassembler); err != nil {
			b.logError("disassembly listing failed", "error", err)
		}
	}
}

// Extract produces the raw binary from the loadable sections of exe.
func (b *Builder) Extract(exe *image.Executable, m *partition.Map) (*image.Binary, error) {
	bin, err := image.Extract(exe, m.Flash(), image.WithFill(b.config.Fill))
	if err != nil {
		return nil, stageError(StageExtract, err)
	}

	b.logDebug("extracted", "base", fmt.Sprintf("0x%08X", bin.Base), "size", bin.Len())
	return bin, nil
}

// Encoder returns the UF2 encoder for the builder's profile.
func (b *Builder) Encoder() *uf2.Encoder {
	return uf2.NewEncoder(
		uf2.WithFamilyID(b.profile.FamilyID),
		uf2.WithPayloadSize(b.profile.PayloadSize),
		uf2.WithWriteAlign(b.profile.WriteSize),
		uf2.WithEmptyPolicy(b.config.EmptyPolicy),
	)
}

// Pack encodes bin as UF2 blocks into w. It re-checks that the image fits
// the application flash region, since bin may not come from Extract.
func (b *Builder) Pack(w io.Writer, bin *image.Binary, m *partition.Map) (int, error) {
	if err := image.CheckFit(bin, m.Flash()); err != nil {
		return 0, stageError(StagePackage, err)
	}

	n, err := b.Encoder().Encode(w, bin.Data, bin.Base)
	if err != nil {
		return n, stageError(StagePackage, err)
	}

	b.logDebug("packaged", "bytes", n, "blocks", n/uf2.BlockSize)
	return n, nil
}

// Build runs the whole pipeline and writes <Name>.bin, optionally
// <Name>.hex, and <Name>.uf2 to the output directory.
// The operation can be cancelled via context.
func (b *Builder) Build(ctx context.Context) (*Artifacts, error) {
	startTime := time.Now()

	b.reportProgress(Progress{Phase: PhaseValidating})

	m, err := b.Validate()
	if err != nil {
		return nil, err
	}

	b.reportProgress(Progress{Phase: PhaseLinking, Percentage: 10, ElapsedTime: time.Since(startTime)})

	exe, err := b.Link(ctx, m)
	if err != nil {
		return nil, err
	}

	b.reportProgress(Progress{Phase: PhaseReporting, Percentage: 60, ElapsedTime: time.Since(startTime)})
	b.Report(exe, m)

	if err := ctx.Err(); err != nil {
		return nil, stageError(StageExtract, fmt.Errorf("cancelled: %w", err))
	}

	b.reportProgress(Progress{Phase: PhaseExtracting, Percentage: 70, ElapsedTime: time.Since(startTime)})

	bin, err := b.Extract(exe, m)
	if err != nil {
		return nil, err
	}

	b.reportProgress(Progress{Phase: PhasePackaging, Percentage: 85, ImageSize: bin.Len(), ElapsedTime: time.Since(startTime)})

	// Encode before writing anything so a packaging failure leaves no
	// artifacts behind.
	var packed bytes.Buffer
	n, err := b.Pack(&packed, bin, m)
	if err != nil {
		return nil, err
	}
	blocks := n / uf2.BlockSize

	art := &Artifacts{Map: m, Executable: exe, Binary: bin, Blocks: blocks}

	if art.BinPath, err = b.WriteBinary(bin); err != nil {
		return nil, err
	}

	if b.config.IntelHex {
		if art.HexPath, err = b.WriteIntelHex(bin); err != nil {
			return nil, err
		}
	}

	art.UF2Path = b.Path(".uf2")
	if err := writeFile(art.UF2Path, func(w io.Writer) error {
		_, err := packed.WriteTo(w)
		return err
	}); err != nil {
		return nil, stageError(StageOutput, err)
	}

	b.reportProgress(Progress{
		Phase:       PhaseComplete,
		Percentage:  100,
		ImageSize:   bin.Len(),
		Blocks:      blocks,
		ElapsedTime: time.Since(startTime),
	})

	b.logInfo("build complete",
		"uf2", art.UF2Path,
		"base", fmt.Sprintf("0x%08X", bin.Base),
		"bytes", bin.Len(),
		"blocks", blocks,
		"elapsed", time.Since(startTime).String(),
	)

	return art, nil
}

// PackFile packages an existing raw binary or Intel HEX file as UF2.
// Files ending in ".hex" or ".ihex" carry their own addresses; anything else
// is a raw binary loaded at the configured base address, or the start of
// application flash if none is configured.
func (b *Builder) PackFile(ctx context.Context, in, out string) (*Artifacts, error) {
	startTime := time.Now()

	b.reportProgress(Progress{Phase: PhaseValidating})

	m, err := b.Validate()
	if err != nil {
		return nil, err
	}

	bin, err := b.ReadImage(in, m)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, stageError(StagePackage, fmt.Errorf("cancelled: %w", err))
	}

	b.reportProgress(Progress{Phase: PhasePackaging, Percentage: 50, ImageSize: bin.Len(), ElapsedTime: time.Since(startTime)})

	blocks, err := b.packTo(out, bin, m)
	if err != nil {
		return nil, err
	}

	b.reportProgress(Progress{
		Phase:       PhaseComplete,
		Percentage:  100,
		ImageSize:   bin.Len(),
		Blocks:      blocks,
		ElapsedTime: time.Since(startTime),
	})

	b.logInfo("packaged", "input", in, "uf2", out, "bytes", bin.Len(), "blocks", blocks)

	return &Artifacts{Map: m, Binary: bin, UF2Path: out, Blocks: blocks}, nil
}

// WriteBinary writes bin to <Name>.bin in the output directory and returns
// the path. The directory is created if needed and the file is replaced
// atomically.
func (b *Builder) WriteBinary(bin *image.Binary) (string, error) {
	path := b.Path(".bin")
	if err := writeFile(path, func(w io.Writer) error {
		_, err := w.Write(bin.Data)
		return err
	}); err != nil {
		return "", stageError(StageOutput, err)
	}
	return path, nil
}

// WriteIntelHex writes bin to <Name>.hex in the output directory, like
// WriteBinary.
func (b *Builder) WriteIntelHex(bin *image.Binary) (string, error) {
	path := b.Path(".hex")
	if err := writeFile(path, func(w io.Writer) error {
		return image.WriteIntelHex(w, bin)
	}); err != nil {
		return "", stageError(StageOutput, err)
	}
	return path, nil
}

// ReadImage loads a raw binary or Intel HEX file for packing. Intel HEX
// records must lie in application flash and carry their own addresses, so a
// configured base address has to agree with them.
func (b *Builder) ReadImage(path string, m *partition.Map) (*image.Binary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stageError(StageExtract, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		bin, err := image.ReadIntelHex(bytes.NewReader(data),
			image.WithFill(b.config.Fill),
			image.WithRegion(m.Flash()),
		)
		if err != nil {
			return nil, stageError(StageExtract, fmt.Errorf("%s: %w", path, err))
		}
		if base := b.config.BaseAddress; base != 0 && base != bin.Base {
			return nil, stageError(StageExtract, fmt.Errorf("%s: base address 0x%08X conflicts with records starting at 0x%08X",
				path, base, bin.Base))
		}
		return bin, nil
	}

	base := b.config.BaseAddress
	if base == 0 {
		base = m.Flash().Origin
	}
	return &image.Binary{Base: base, Data: data}, nil
}

// packTo encodes into memory first so that a failed encode never leaves a
// partial file behind.
func (b *Builder) packTo(path string, bin *image.Binary, m *partition.Map) (int, error) {
	var buf bytes.Buffer
	n, err := b.Pack(&buf, bin, m)
	if err != nil {
		return 0, err
	}

	if err := writeFile(path, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	}); err != nil {
		return 0, stageError(StageOutput, err)
	}

	return n / uf2.BlockSize, nil
}

// Clean removes the artifacts Build writes. Missing files are not an error.
func (b *Builder) Clean() error {
	var errs []error
	for _, ext := range []string{".bin", ".hex", ".uf2"} {
		path := b.Path(ext)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		b.logDebug("removed", "path", path)
	}
	return errors.Join(errs...)
}

// writeFile writes through a temporary file in the target directory and
// renames it into place.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), path)
}

// reportProgress calls the progress callback if configured.
func (b *Builder) reportProgress(progress Progress) {
	if b.config.ProgressCallback != nil {
		b.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (b *Builder) logDebug(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (b *Builder) logInfo(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (b *Builder) logError(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Error(msg, keysAndValues...)
	}
}
