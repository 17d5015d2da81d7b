// Command nrfpack turns a linked nRF52 application into a flashable UF2
// image for the UF2 bootloader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/moffa90/nrfpack/partition"
	"github.com/moffa90/nrfpack/toolchain"
	"golang.org/x/term"
	"import.name/confi"
)

const mainUsageHead = `Usage: %s [options] command [arguments]

Commands:
`

const mainUsageTail = `
Exit status is 1 when a pipeline stage fails and 2 on usage errors.

Options:
`

// Config is the command configuration. It can be read from TOML files (-f)
// and set per key (-o build.name=firmware).
type Config struct {
	Device struct {
		Profile string
	}

	Build struct {
		Dir        string
		Command    []string
		Executable string
		Output     string
		Name       string
		Base       string
		Fill       int
		Empty      string
		Hex        bool
	}

	Log struct {
		Level string
	}
}

// DefaultConfig returns the configuration used before files and options
// are applied.
func DefaultConfig() *Config {
	c := new(Config)
	c.Device.Profile = partition.DefaultProfile
	c.Build.Dir = "."
	c.Build.Command = append([]string(nil), toolchain.DefaultArgs...)
	c.Build.Executable = "target/" + toolchain.DefaultTarget + "/release/app"
	c.Build.Output = "."
	c.Build.Name = "app"
	c.Build.Empty = "reject"
	c.Log.Level = "info"
	return c
}

func main() {
	c := DefaultConfig()

	flag.Var(confi.FileReader(c), "f", "read a configuration file")
	flag.Var(confi.Assigner(c), "o", "set a configuration option (path.to.key=value)")
	flag.Func("base", "load address of a raw binary (sets build.base)", func(s string) error {
		if _, err := parseAddress(s); err != nil {
			return err
		}
		c.Build.Base = s
		return nil
	})
	verbose := flag.Bool("v", false, "debug logging (sets log.level=debug)")

	confiUsage := confi.FlagUsage(nil, c)
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, mainUsageHead, flag.CommandLine.Name())
		writeCommandList(out)
		fmt.Fprint(out, mainUsageTail)
		confiUsage()
	}
	flag.Parse()

	if *verbose {
		c.Log.Level = "debug"
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		config: c,
		stdout: os.Stdout,
		stderr: os.Stderr,
		term:   isTerminal(os.Stderr),
	}

	err := a.run(ctx, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.CommandLine.Name(), err)
		if exitCode(err) == 2 {
			flag.Usage()
		}
	}
	stop()
	os.Exit(exitCode(err))
}

// usageError is a command line mistake; it exits with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...interface{}) error {
	return &usageError{fmt.Sprintf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return 2
	}
	return 1
}

func parseAddress(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(n), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
