package partition

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// LinkerScriptName is the file name cortex-m-rt looks for on the linker
// search path.
const LinkerScriptName = "memory.x"

// WriteLinkerScript renders the application regions as a MEMORY command.
// Reserved regions are listed in comments only; the application must not be
// linked into them.
//
// Example output:
//
//	MEMORY
//	{
//	  FLASH (rx) : ORIGIN = 0x00026000, LENGTH = 0x000CE000
//	  RAM (rwx) : ORIGIN = 0x20000000, LENGTH = 0x00040000
//	}
func WriteLinkerScript(w io.Writer, m *Map) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "/* Memory layout for %s. */\n", m.profile.Name)
	for _, r := range m.Reserved() {
		fmt.Fprintf(bw, "/* %s: ORIGIN = 0x%08X, LENGTH = 0x%08X (reserved) */\n", r.Name, r.Origin, r.Length)
	}
	fmt.Fprintln(bw, "MEMORY")
	fmt.Fprintln(bw, "{")
	for _, r := range []Region{m.Flash(), m.RAM()} {
		fmt.Fprintf(bw, "  %s (%s) : ORIGIN = 0x%08X, LENGTH = 0x%08X\n", r.Name, r.Perm, r.Origin, r.Length)
	}
	fmt.Fprintln(bw, "}")

	return bw.Flush()
}

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	memoryBlock  = regexp.MustCompile(`(?s)\bMEMORY\s*\{(.*?)\}`)
	memoryEntry  = regexp.MustCompile(`^(\w+)\s*(?:\(([^)]*)\))?\s*:\s*(?i:ORIGIN|org|o)\s*=\s*([^,]+?)\s*,\s*(?i:LENGTH|len|l)\s*=\s*(.+?)\s*,?$`)
)

// ParseLinkerScript reads the MEMORY command of a GNU ld linker script.
// ORIGIN and LENGTH may be simple expressions of numbers joined by + and -,
// with optional K or M suffixes (e.g. "0xED000 - 0x26000", "256K").
func ParseLinkerScript(r io.Reader) ([]Region, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read linker script: %w", err)
	}

	text := blockComment.ReplaceAllString(string(data), "")
	text = lineComment.ReplaceAllString(text, "")

	match := memoryBlock.FindStringSubmatch(text)
	if match == nil {
		return nil, fmt.Errorf("no MEMORY command found")
	}

	var regions []Region
	for lineNum, line := range strings.Split(match[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		region, err := parseMemoryEntry(line)
		if err != nil {
			return nil, fmt.Errorf("MEMORY line %d: %w", lineNum+1, err)
		}
		if _, dup := find(regions, region.Name); dup {
			return nil, fmt.Errorf("MEMORY line %d: duplicate region %s", lineNum+1, region.Name)
		}
		regions = append(regions, region)
	}

	if len(regions) == 0 {
		return nil, fmt.Errorf("MEMORY command declares no regions")
	}

	return regions, nil
}

func parseMemoryEntry(line string) (Region, error) {
	m := memoryEntry.FindStringSubmatch(line)
	if m == nil {
		return Region{}, fmt.Errorf("invalid region declaration %q", line)
	}

	perm, err := ParsePerm(m[2])
	if err != nil {
		return Region{}, err
	}

	origin, err := evalExpr(m[3])
	if err != nil {
		return Region{}, fmt.Errorf("region %s ORIGIN: %w", m[1], err)
	}
	length, err := evalExpr(m[4])
	if err != nil {
		return Region{}, fmt.Errorf("region %s LENGTH: %w", m[1], err)
	}
	if origin > 0xFFFFFFFF || length > 0xFFFFFFFF {
		return Region{}, fmt.Errorf("region %s exceeds the 32-bit address space", m[1])
	}

	return Region{
		Name:   m[1],
		Origin: uint32(origin),
		Length: uint32(length),
		Perm:   perm,
	}, nil
}

// evalExpr evaluates a sum of terms such as "0xED000 - 0x26000" or "256K".
func evalExpr(expr string) (uint64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	var (
		total int64
		sign  int64 = 1
		term  strings.Builder
	)

	flush := func() error {
		s := strings.TrimSpace(term.String())
		term.Reset()
		if s == "" {
			return fmt.Errorf("invalid expression %q", expr)
		}
		v, err := parseNumber(s)
		if err != nil {
			return err
		}
		total += sign * int64(v)
		return nil
	}

	for _, c := range expr {
		switch c {
		case '+', '-':
			if err := flush(); err != nil {
				return 0, err
			}
			sign = 1
			if c == '-' {
				sign = -1
			}
		default:
			term.WriteRune(c)
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if total < 0 {
		return 0, fmt.Errorf("expression %q is negative", expr)
	}
	return uint64(total), nil
}

func parseNumber(s string) (uint64, error) {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult = 1024
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult = 1024 * 1024
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 33)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v * mult, nil
}
