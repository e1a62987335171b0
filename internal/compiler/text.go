package compiler

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/pulsenet/internal/ir"
)

// arrow separates a module declaration from its target list.
const arrow = "->"

// ParseError reports a malformed line in the puzzle text format.
type ParseError struct {
	Line    int
	Text    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseText reads module definitions in the puzzle text format.
// Definitions are returned in file order; target order within a line is kept.
func ParseText(r io.Reader) ([]ir.Definition, error) {
	var defs []ir.Definition

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		def, err := parseLine(line)
		if err != nil {
			err.Line = lineNo
			err.Text = line
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read circuit: %w", err)
	}

	return defs, nil
}

// ParseString is ParseText over an in-memory string.
func ParseString(s string) ([]ir.Definition, error) {
	return ParseText(strings.NewReader(s))
}

// MustParseString is like ParseString but panics on error.
// Use only in tests or with literal circuits known to be valid.
func MustParseString(s string) []ir.Definition {
	defs, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return defs
}

func parseLine(line string) (ir.Definition, *ParseError) {
	head, tail, ok := strings.Cut(line, arrow)
	if !ok {
		return ir.Definition{}, &ParseError{Message: "missing " + arrow}
	}

	head = strings.TrimSpace(head)
	if head == "" {
		return ir.Definition{}, &ParseError{Message: "missing module name"}
	}

	marker, name := splitMarker(head)
	kind, err := ir.ParseKindMarker(marker)
	if err != nil {
		return ir.Definition{}, &ParseError{Message: "bad kind marker", Err: err}
	}
	if name == "" {
		return ir.Definition{}, &ParseError{Message: "missing module name"}
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return ir.Definition{}, &ParseError{Message: "module name contains whitespace"}
	}

	targets := []string{}
	tail = strings.TrimSpace(tail)
	if tail != "" {
		for _, t := range strings.Split(tail, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				return ir.Definition{}, &ParseError{Message: "empty target name"}
			}
			targets = append(targets, t)
		}
	}

	return ir.Definition{Name: name, Kind: kind, Targets: targets}, nil
}

// splitMarker separates a leading non-identifier rune from the name.
// Any such rune is returned as the marker so that unknown markers are
// reported instead of silently becoming part of the name.
func splitMarker(head string) (marker, name string) {
	r, size := utf8.DecodeRuneInString(head)
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return "", head
	}
	return head[:size], strings.TrimSpace(head[size:])
}
