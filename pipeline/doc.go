// Package pipeline turns application sources into a flashable UF2 image for
// a device with a resident UF2 bootloader and SoftDevice.
//
// # Overview
//
// A build runs these stages strictly in sequence, each consuming the
// previous stage's output:
//   - Validating the partition map for the device profile
//   - Linking the application against the map (external toolchain)
//   - Reporting size and disassembly (optional, never fatal)
//   - Extracting the raw binary from the linked executable
//   - Packaging the binary as UF2 blocks
//
// # Basic Usage
//
//	profile, err := partition.Lookup("nrf52840-s140v6")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b := pipeline.New(profile,
//	    pipeline.WithLinker(toolchain.NewCommand(".", "target/thumbv7em-none-eabihf/release/app")),
//	    pipeline.WithOutputDir("build"),
//	)
//
//	art, err := b.Build(context.Background())
//	if err != nil {
//	    log.Fatal(err) // *StageError naming the failed stage
//	}
//	fmt.Printf("wrote %s (%d blocks)\n", art.UF2Path, art.Blocks)
//
// # Progress Tracking
//
// Track build progress with a callback:
//
//	b := pipeline.New(profile,
//	    pipeline.WithProgressCallback(func(p pipeline.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	b := pipeline.New(profile,
//	    pipeline.WithLinker(linker),
//	    pipeline.WithLogger(myLogger),
//	    pipeline.WithName("firmware"),
//	    pipeline.WithFill(0xFF),
//	    pipeline.WithIntelHex(true),
//	    pipeline.WithEmptyPolicy(uf2.EmptyPaddingBlock),
//	    pipeline.WithSizeReport(os.Stdout),
//	)
//
// # Logging
//
// Provide a Logger to see what each stage did. Any logging framework can be
// adapted to the three-method interface.
//
// # Error Handling
//
// Every failure is returned as *StageError. The wrapped error keeps its
// type, so callers can still match *partition.OverlapError,
// *image.OverflowError, *uf2.AlignmentError and the rest with errors.As.
package pipeline
