package pipeline

import (
	"io"

	"github.com/moffa90/nrfpack/report"
	"github.com/moffa90/nrfpack/uf2"
)

// Config holds the builder configuration.
type Config struct {
	// Linker produces the executable (required for Build and Link)
	Linker Linker

	// ProgressCallback is called as stages start (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// OutputDir is the directory artifacts are written to
	OutputDir string

	// Name is the artifact base name: <Name>.bin, <Name>.hex, <Name>.uf2
	Name string

	// BaseAddress overrides the load address of raw binaries given to
	// PackFile. Zero means the start of application flash.
	BaseAddress uint32

	// EmptyPolicy decides what an empty image packs to
	EmptyPolicy uf2.EmptyPolicy

	// Fill is the byte used for gaps between sections
	Fill byte

	// IntelHex enables writing <Name>.hex next to the raw binary
	IntelHex bool

	// SizeReport receives the size summary after linking (optional)
	SizeReport io.Writer

	// Disassembler and Listing enable the disassembly listing (optional)
	Disassembler report.Disassembler
	Listing      io.Writer
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		OutputDir:   ".",
		Name:        "app",
		EmptyPolicy: uf2.EmptyReject,
	}
}

// Option is a functional option for configuring the Builder.
type Option func(*Config)

// WithLinker sets the toolchain used to link the application.
//
// Example:
//
//	b := pipeline.New(profile, pipeline.WithLinker(toolchain.NewCommand(dir, elfPath)))
func WithLinker(l Linker) Option {
	return func(c *Config) {
		c.Linker = l
	}
}

// WithProgressCallback sets a callback function to track build progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the builder operations.
//
// Example:
//
//	b := pipeline.New(profile, pipeline.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithOutputDir sets the directory artifacts are written to.
// Default is the current directory.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.OutputDir = dir
		}
	}
}

// WithName sets the artifact base name. Default is "app".
func WithName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.Name = name
		}
	}
}

// WithBaseAddress sets the load address used when packing a raw binary.
//
// Example:
//
//	b := pipeline.New(profile, pipeline.WithBaseAddress(0x26000))
func WithBaseAddress(addr uint32) Option {
	return func(c *Config) {
		c.BaseAddress = addr
	}
}

// WithEmptyPolicy sets the handling of empty images.
// Default is uf2.EmptyReject.
func WithEmptyPolicy(p uf2.EmptyPolicy) Option {
	return func(c *Config) {
		c.EmptyPolicy = p
	}
}

// WithFill sets the byte used for gaps between sections. Default is 0x00.
func WithFill(b byte) Option {
	return func(c *Config) {
		c.Fill = b
	}
}

// WithIntelHex enables or disables writing an Intel HEX copy of the image.
func WithIntelHex(enabled bool) Option {
	return func(c *Config) {
		c.IntelHex = enabled
	}
}

// WithSizeReport writes a size summary to w after linking.
func WithSizeReport(w io.Writer) Option {
	return func(c *Config) {
		c.SizeReport = w
	}
}

// WithDisassembler writes a disassembly listing made with d to w after
// linking.
func WithDisassembler(d report.Disassembler, w io.Writer) Option {
	return func(c *Config) {
		c.Disassembler = d
		c.Listing = w
	}
}
