package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/moffa90/nrfpack/image"
	"github.com/moffa90/nrfpack/partition"
)

// DefaultTarget is the Rust target triple for the nRF52840's Cortex-M4F.
const DefaultTarget = "thumbv7em-none-eabihf"

// DefaultArgs is the build command run when none is configured.
var DefaultArgs = []string{"cargo", "build", "--release", "--target", DefaultTarget}

// stderrTail bounds how much linker output goes into an error message.
const stderrTail = 2048

// Command links by running an external build command in a project directory.
// Before the command runs, the partition map is written to memory.x in that
// directory, where cortex-m-rt based builds pick it up.
type Command struct {
	// Dir is the project directory
	Dir string

	// Args is the build command; DefaultArgs if empty
	Args []string

	// Executable is the linked ELF file, relative to Dir unless absolute
	Executable string

	// Env is added to the inherited environment
	Env []string

	// Stdout and Stderr receive the command output (optional)
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommand creates a Command that runs args (DefaultArgs if none) in dir
// and loads executable afterwards.
//
// Example:
//
//	linker := toolchain.NewCommand(".", "target/thumbv7em-none-eabihf/release/app")
//	b := pipeline.New(profile, pipeline.WithLinker(linker))
func NewCommand(dir, executable string, args ...string) *Command {
	return &Command{
		Dir:        dir,
		Args:       args,
		Executable: executable,
	}
}

// ExecutablePath returns the resolved path of the linked ELF file.
func (c *Command) ExecutablePath() string {
	if filepath.IsAbs(c.Executable) {
		return c.Executable
	}
	return filepath.Join(c.Dir, c.Executable)
}

// WriteMemoryX writes the linker memory map for m into the project directory.
func (c *Command) WriteMemoryX(m *partition.Map) (string, error) {
	var buf bytes.Buffer
	if err := partition.WriteLinkerScript(&buf, m); err != nil {
		return "", err
	}

	path := filepath.Join(c.Dir, partition.LinkerScriptName)

	// Leave an identical file alone so the build system does not relink.
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, buf.Bytes()) {
		return path, nil
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", partition.LinkerScriptName, err)
	}
	return path, nil
}

// Link writes memory.x, runs the build command and loads the executable.
// A region overflow reported by the linker is returned as
// *image.OverflowError.
func (c *Command) Link(ctx context.Context, m *partition.Map) (*image.Executable, error) {
	if _, err := c.WriteMemoryX(m); err != nil {
		return nil, err
	}

	args := c.Args
	if len(args) == 0 {
		args = DefaultArgs
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, c.Stderr)
	}

	if err := cmd.Run(); err != nil {
		if overflow := ParseOverflow(stderr.String(), m); overflow != nil {
			return nil, overflow
		}
		return nil, fmt.Errorf("%s: %w%s", strings.Join(args, " "), err, tail(stderr.String()))
	}

	return image.Open(c.ExecutablePath())
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return "\n" + s
}

// Prebuilt is a Linker for an executable that was linked elsewhere.
type Prebuilt struct {
	Path string
}

// Link loads the executable. The map is not consulted; extraction checks
// the executable against it.
func (p Prebuilt) Link(ctx context.Context, m *partition.Map) (*image.Executable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return image.Open(p.Path)
}
