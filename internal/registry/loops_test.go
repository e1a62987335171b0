package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/ir"
)

func TestAnalyzeLoops_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeLoops(nil))
}

func TestAnalyzeLoops_Acyclic(t *testing.T) {
	defs := compiler.MustParseString(`
broadcaster -> a, b
%a -> con
%b -> con
&con -> output
`)
	assert.Empty(t, AnalyzeLoops(defs))
}

func TestAnalyzeLoops_CounterIsBounded(t *testing.T) {
	loops := AnalyzeLoops(compiler.MustParseString(classicCounter))
	require.Len(t, loops, 1)

	loop := loops[0]
	assert.Equal(t, []string{"a", "b", "c", "inv"}, loop.Members)
	assert.Equal(t, []string{"a", "b", "c", "inv", "a"}, loop.Path)
	assert.False(t, loop.Unbounded)
	assert.Equal(t, "info", loop.Level)
	assert.Equal(t, "Feedback loop: a → b → c → inv → a", loop.Message)
}

func TestAnalyzeLoops_ConjunctionSelfLoop(t *testing.T) {
	defs := []ir.Definition{
		{Name: "broadcaster", Kind: ir.KindBroadcaster, Targets: []string{"x"}},
		{Name: "x", Kind: ir.KindConjunction, Targets: []string{"x"}},
	}

	loops := AnalyzeLoops(defs)
	require.Len(t, loops, 1)
	assert.True(t, loops[0].Unbounded)
	assert.Equal(t, []string{"x", "x"}, loops[0].Path)
	assert.Equal(t, "error", loops[0].Level)
	assert.Equal(t, "Unbounded loop: x → x", loops[0].Message)
}

func TestAnalyzeLoops_FlipFlopSelfLoopIsBounded(t *testing.T) {
	defs := []ir.Definition{
		{Name: "broadcaster", Kind: ir.KindBroadcaster, Targets: []string{"f"}},
		{Name: "f", Kind: ir.KindFlipFlop, Targets: []string{"f"}},
	}

	loops := AnalyzeLoops(defs)
	require.Len(t, loops, 1)
	assert.False(t, loops[0].Unbounded)
}

func TestAnalyzeLoops_OrderedByDefinition(t *testing.T) {
	defs := compiler.MustParseString(`
broadcaster -> p0, q0
%q0 -> qc
&qc -> q0
%p0 -> pc
&pc -> p0
`)
	loops := AnalyzeLoops(defs)
	require.Len(t, loops, 2)
	assert.Equal(t, "q0", loops[0].Members[0])
	assert.Equal(t, "p0", loops[1].Members[0])
}

func TestRegistry_Loops(t *testing.T) {
	reg := MustNew(compiler.MustParseString(classicCounter))
	loops := reg.Loops()
	require.Len(t, loops, 1)
	assert.False(t, loops[0].Unbounded)
}

func TestUnboundedLoopError(t *testing.T) {
	_, err := New([]ir.Definition{
		{Name: "broadcaster", Kind: ir.KindBroadcaster, Targets: []string{"x"}},
		{Name: "x", Kind: ir.KindConjunction, Targets: []string{"y"}},
		{Name: "y", Kind: ir.KindConjunction, Targets: []string{"x"}},
	})
	require.Error(t, err)
	require.True(t, IsUnboundedLoop(err))

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"x", "y", "x"}, re.Path)
	assert.Equal(t, "x", re.Module)
}
