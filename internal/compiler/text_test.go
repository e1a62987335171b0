package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/ir"
)

func TestParseText_Basic(t *testing.T) {
	defs, err := ParseString(`
broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`)
	require.NoError(t, err)
	require.Len(t, defs, 5)

	assert.Equal(t, ir.Definition{Name: "broadcaster", Kind: ir.KindBroadcaster, Targets: []string{"a", "b", "c"}}, defs[0])
	assert.Equal(t, ir.Definition{Name: "a", Kind: ir.KindFlipFlop, Targets: []string{"b"}}, defs[1])
	assert.Equal(t, ir.Definition{Name: "inv", Kind: ir.KindConjunction, Targets: []string{"a"}}, defs[4])
}

func TestParseText_EmptyTargetList(t *testing.T) {
	defs, err := ParseString("broadcaster -> c\n%c ->\n")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "c", defs[1].Name)
	assert.Equal(t, []string{}, defs[1].Targets)
}

func TestParseText_SkipsBlankAndComments(t *testing.T) {
	defs, err := ParseString("# counter\n\nbroadcaster -> a\n   \n# tail\n%a -> out\n")
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestParseText_TolerantWhitespace(t *testing.T) {
	defs, err := ParseString("  &  con->a ,b  ")
	require.NoError(t, err)
	require.Len(t, defs, 1)

	assert.Equal(t, "con", defs[0].Name)
	assert.Equal(t, ir.KindConjunction, defs[0].Kind)
	assert.Equal(t, []string{"a", "b"}, defs[0].Targets)
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		message string
	}{
		{"missing arrow", "broadcaster -> a\n%a b", 2, "missing ->"},
		{"missing name", " -> a", 1, "missing module name"},
		{"marker only", "% -> a", 1, "missing module name"},
		{"unknown marker", "broadcaster -> a\n\n#a -> b\n!a -> b", 4, "bad kind marker"},
		{"empty target", "broadcaster -> a, , b", 1, "empty target name"},
		{"space in name", "%a b -> c", 1, "module name contains whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError, got %T", err)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.message, pe.Message)
		})
	}
}

func TestParseText_UnknownMarkerWrapsKindError(t *testing.T) {
	_, err := ParseString("*x -> y")
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrUnknownKind)
	assert.Contains(t, err.Error(), "line 1")
}

func TestMustParseString_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseString("nonsense") })
}

func TestLoadFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circuit.txt")
	require.NoError(t, os.WriteFile(path, []byte("broadcaster -> a\n%a -> rx\n"), 0644))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestLoadFile_CUE(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circuit.cue")
	src := strings.Join([]string{
		`module: broadcaster: {kind: "broadcaster", targets: ["a"]}`,
		`module: a: {kind: "flipflop", targets: ["rx"]}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, ir.KindFlipFlop, defs[1].Kind)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
