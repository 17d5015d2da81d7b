package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/moffa90/nrfpack/image"
	"github.com/moffa90/nrfpack/partition"
	"github.com/moffa90/nrfpack/pipeline"
	"github.com/moffa90/nrfpack/report"
	"github.com/moffa90/nrfpack/report/capstone"
	"github.com/moffa90/nrfpack/toolchain"
	"github.com/moffa90/nrfpack/uf2"
)

type command struct {
	usage   string
	detail  string
	minArgs int
	maxArgs int
	do      func(ctx context.Context, a *app, args []string)
}

var commands = map[string]command{
	"profiles": {
		detail: "list device profiles",
		do:     cmdProfiles,
	},
	"memory-x": {
		usage:   "[file]",
		detail:  "render the linker memory map",
		maxArgs: 1,
		do:      cmdMemoryX,
	},
	"check": {
		usage:   "[memory.x]",
		detail:  "validate the partition map and an existing memory.x",
		maxArgs: 1,
		do:      cmdCheck,
	},
	"bin": {
		usage:   "[elf]",
		detail:  "extract the raw binary",
		maxArgs: 1,
		do:      cmdBin,
	},
	"hex": {
		usage:   "[elf]",
		detail:  "extract an Intel HEX image",
		maxArgs: 1,
		do:      cmdHex,
	},
	"uf2": {
		usage:   "[bin-or-hex]",
		detail:  "package a binary as UF2 (raw binaries load at -base)",
		maxArgs: 1,
		do:      cmdUF2,
	},
	"build": {
		detail: "link, extract and package",
		do:     cmdBuild,
	},
	"size": {
		usage:   "[elf]",
		detail:  "print the section size summary",
		maxArgs: 1,
		do:      cmdSize,
	},
	"disasm": {
		usage:   "[elf]",
		detail:  "print a disassembly listing",
		maxArgs: 1,
		do:      cmdDisasm,
	},
	"info": {
		usage:   "uf2",
		detail:  "decode and summarize a UF2 file",
		minArgs: 1,
		maxArgs: 1,
		do:      cmdInfo,
	},
	"unpack": {
		usage:   "uf2 bin",
		detail:  "reconstruct the raw binary from a UF2 file",
		minArgs: 2,
		maxArgs: 2,
		do:      cmdUnpack,
	},
	"clean": {
		detail: "remove build artifacts",
		do:     cmdClean,
	},
}

func writeCommandList(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-22s %s\n", strings.TrimSpace(name+" "+cmd.usage), cmd.detail)
	}
}

type app struct {
	config *Config
	stdout io.Writer
	stderr io.Writer
	term   bool

	log     *logrus.Logger
	profile partition.Profile
	base    uint32
	empty   uf2.EmptyPolicy
}

// run executes one command. Errors raised inside the command are recovered
// here and returned.
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("no command")
	}

	name, args := args[0], args[1:]
	cmd, found := commands[name]
	if !found {
		return usagef("unknown command: %s", name)
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return usagef("usage: %s %s", name, cmd.usage)
	}

	return z.Recover(func() {
		a.init()
		cmd.do(ctx, a, args)
	})
}

func (a *app) init() {
	c := a.config

	a.log = must(newLogger(c.Log.Level, a.stderr))

	base, err := parseAddress(c.Build.Base)
	if err != nil {
		check(usagef("build.base: %v", err))
	}
	a.base = base

	if c.Build.Fill < 0 || c.Build.Fill > 0xFF {
		check(usagef("build.fill: %d is not a byte value", c.Build.Fill))
	}

	empty, err := uf2.ParseEmptyPolicy(c.Build.Empty)
	if err != nil {
		check(usagef("build.empty: %v", err))
	}
	a.empty = empty

	profile, err := partition.Lookup(c.Device.Profile)
	if err != nil {
		check(stageFailure(pipeline.StageValidate, err))
	}
	a.profile = profile
}

func (a *app) builder(linker pipeline.Linker, opts ...pipeline.Option) *pipeline.Builder {
	c := a.config

	options := []pipeline.Option{
		pipeline.WithLinker(linker),
		pipeline.WithLogger(logAdapter{a.log}),
		pipeline.WithOutputDir(c.Build.Output),
		pipeline.WithName(c.Build.Name),
		pipeline.WithBaseAddress(a.base),
		pipeline.WithEmptyPolicy(a.empty),
		pipeline.WithFill(byte(c.Build.Fill)),
	}
	if a.term {
		options = append(options, pipeline.WithProgressCallback(newProgressBar(a.stderr, 30).update))
	}

	return pipeline.New(a.profile, append(options, opts...)...)
}

// executable picks the ELF file named on the command line, or the
// configured build output.
func (a *app) executable(args []string) pipeline.Linker {
	if len(args) > 0 {
		return toolchain.Prebuilt{Path: args[0]}
	}
	c := a.config
	return toolchain.Prebuilt{Path: toolchain.NewCommand(c.Build.Dir, c.Build.Executable).ExecutablePath()}
}

func (a *app) link(ctx context.Context, args []string) (*pipeline.Builder, *partition.Map, *image.Executable) {
	b := a.builder(a.executable(args))
	m := must(b.Validate())
	exe := must(b.Link(ctx, m))
	return b, m, exe
}

func stageFailure(stage string, err error) error {
	if err == nil || pipeline.IsStageError(err) {
		return err
	}
	return &pipeline.StageError{Stage: stage, Err: err}
}

func cmdProfiles(ctx context.Context, a *app, args []string) {
	for _, name := range partition.Profiles() {
		p := must(partition.Lookup(name))

		m, err := partition.NewMap(p)
		if err != nil {
			fmt.Fprintf(a.stdout, "%-18s invalid: %v\n", name, err)
			continue
		}

		flash, ram := m.Flash(), m.RAM()
		fmt.Fprintf(a.stdout, "%-18s %-9s FLASH 0x%08X-0x%08X %-9s RAM 0x%08X-0x%08X %s\n",
			name, uf2.FamilyName(p.FamilyID),
			flash.Origin, flash.End(), humanize.IBytes(uint64(flash.Length)),
			ram.Origin, ram.End(), humanize.IBytes(uint64(ram.Length)))
	}
}

func cmdMemoryX(ctx context.Context, a *app, args []string) {
	m := must(a.builder(nil).Validate())

	if len(args) == 0 {
		check(stageFailure(pipeline.StageOutput, partition.WriteLinkerScript(a.stdout, m)))
		return
	}

	f, err := os.Create(args[0])
	check(stageFailure(pipeline.StageOutput, err))
	defer f.Close()
	check(stageFailure(pipeline.StageOutput, partition.WriteLinkerScript(f, m)))
	check(stageFailure(pipeline.StageOutput, f.Close()))
	a.log.WithField("path", args[0]).Info("wrote linker memory map")
}

func cmdCheck(ctx context.Context, a *app, args []string) {
	m := must(a.builder(nil).Validate())

	if len(args) > 0 {
		f, err := os.Open(args[0])
		check(stageFailure(pipeline.StageValidate, err))
		defer f.Close()

		regions, err := partition.ParseLinkerScript(f)
		if err != nil {
			check(stageFailure(pipeline.StageValidate, fmt.Errorf("%s: %w", args[0], err)))
		}
		check(stageFailure(pipeline.StageValidate, m.Check(regions)))
	}

	flash, ram := m.Flash(), m.RAM()
	fmt.Fprintf(a.stdout, "%s: FLASH 0x%08X-0x%08X, RAM 0x%08X-0x%08X ok\n",
		a.profile.Name, flash.Origin, flash.End(), ram.Origin, ram.End())
}

func cmdBin(ctx context.Context, a *app, args []string) {
	b, m, exe := a.link(ctx, args)
	bin := must(b.Extract(exe, m))

	path := must(b.WriteBinary(bin))
	fmt.Fprintf(a.stdout, "%s: %s at 0x%08X\n", path, humanize.IBytes(uint64(bin.Len())), bin.Base)
}

func cmdHex(ctx context.Context, a *app, args []string) {
	b, m, exe := a.link(ctx, args)
	bin := must(b.Extract(exe, m))

	path := must(b.WriteIntelHex(bin))
	fmt.Fprintf(a.stdout, "%s: %s at 0x%08X\n", path, humanize.IBytes(uint64(bin.Len())), bin.Base)
}

func cmdUF2(ctx context.Context, a *app, args []string) {
	b := a.builder(nil)

	in := b.Path(".bin")
	if len(args) > 0 {
		in = args[0]
	}

	art := must(b.PackFile(ctx, in, b.Path(".uf2")))
	fmt.Fprintf(a.stdout, "%s: %d blocks, %s at 0x%08X\n",
		art.UF2Path, art.Blocks, humanize.IBytes(uint64(art.Binary.Len())), art.Binary.Base)
}

func cmdBuild(ctx context.Context, a *app, args []string) {
	c := a.config

	linker := toolchain.NewCommand(c.Build.Dir, c.Build.Executable, c.Build.Command...)
	linker.Stderr = a.stderr

	b := a.builder(linker,
		pipeline.WithSizeReport(a.stdout),
		pipeline.WithIntelHex(c.Build.Hex),
	)

	art := must(b.Build(ctx))
	fmt.Fprintf(a.stdout, "%s: %d blocks, %s at 0x%08X\n",
		art.UF2Path, art.Blocks, humanize.IBytes(uint64(art.Binary.Len())), art.Binary.Base)
}

func cmdSize(ctx context.Context, a *app, args []string) {
	_, m, exe := a.link(ctx, args)
	check(stageFailure(pipeline.StageOutput, report.WriteSize(a.stdout, report.Size(exe), m)))
}

func cmdDisasm(ctx context.Context, a *app, args []string) {
	_, _, exe := a.link(ctx, args)

	d := must(capstone.New())
	defer d.Close()

	check(stageFailure(pipeline.StageOutput, report.WriteListing(a.stdout, exe, d)))
}

func cmdInfo(ctx context.Context, a *app, args []string) {
	f, err := uf2.Parse(args[0])
	check(stageFailure(pipeline.StageExtract, err))
	writeInfo(a.stdout, args[0], f)
}

func cmdUnpack(ctx context.Context, a *app, args []string) {
	f, err := uf2.Parse(args[0])
	check(stageFailure(pipeline.StageExtract, err))

	base, data, err := f.Binary(byte(a.config.Build.Fill))
	check(stageFailure(pipeline.StageExtract, err))

	check(stageFailure(pipeline.StageOutput, os.WriteFile(args[1], data, 0o644)))
	fmt.Fprintf(a.stdout, "%s: %s at 0x%08X\n", args[1], humanize.IBytes(uint64(len(data))), base)
}

func cmdClean(ctx context.Context, a *app, args []string) {
	check(stageFailure(pipeline.StageOutput, a.builder(nil).Clean()))
}
