// Package testutil provides shared fixtures for tests: well-known circuits
// with hand-checked answers and deterministic generators.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/registry"
)

// ClassicCounter is the first worked example of the puzzle.
// 1000 presses: 8000 low, 4000 high, product 32000000.
const ClassicCounter = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

// ClassicOutput is the second worked example, with an undefined "output".
// 1000 presses: 4250 low, 2750 high, product 11687500.
const ClassicOutput = `broadcaster -> a
%a -> inv, con
&inv -> b
%b -> con
&con -> output
`

// FlipFlopChain is three flip-flops in a row with an empty tail.
// One press delivers 4 low and 2 high pulses.
const FlipFlopChain = `broadcaster -> a, b, c
%a -> b
%b -> c
%c ->
`

// OrderSensitive gives different totals under FIFO and LIFO delivery.
// 3 presses: FIFO 15 low / 11 high, LIFO 14 low / 12 high.
const OrderSensitive = `broadcaster -> a, b
%a -> b, c
%b -> c
&c -> out
`

// PeriodHub has three independent counters of period 3, 4 and 5 whose
// inverters feed &hub. Each inverter sends hub High exactly on multiples
// of its period, so hub first hears High from all three on trigger 60.
const PeriodHub = `broadcaster -> t0, f0, p0
%t0 -> t1, tc
%t1 -> tc
&tc -> t0, tinv
&tinv -> hub
%f0 -> f1
%f1 -> finv
&finv -> hub
%p0 -> p1, pc
%p1 -> p2
%p2 -> pc
&pc -> p1, p0, pinv
&pinv -> hub
&hub -> rx
`

// FalsePeriod feeds &hub from a period-3 counter and from &ng, which
// sends High on triggers 7, 15, 23, ... (first occurrence is not the
// period). Trusting the first occurrence gives LCM(7, 3) = 21; the true
// answer is 15.
const FalsePeriod = `broadcaster -> f0, t0
%f0 -> f1, g
%f1 -> f2, g
%f2 -> g
&g -> ng
&ng -> hub
%t0 -> t1, tc
%t1 -> tc
&tc -> t0, tinv
&tinv -> hub
&hub -> rx
`

// MixedHub feeds &hub from a conjunction (High on multiples of 3) and a
// flip-flop (High on triggers 2, 6, 10, ...). LCM does not apply; brute
// force finds trigger 6.
const MixedHub = `broadcaster -> t0, f0
%t0 -> t1, tc
%t1 -> tc
&tc -> t0, tinv
&tinv -> hub
%f0 -> f1
%f1 -> hub
&hub -> rx
`

// MustRegistry parses a text-format circuit and builds its registry,
// failing the test on error.
func MustRegistry(t testing.TB, circuit string) *registry.Registry {
	t.Helper()
	defs, err := compiler.ParseString(circuit)
	require.NoError(t, err)
	reg, err := registry.New(defs)
	require.NoError(t, err)
	return reg
}
