// Package state holds the mutable per-module memory of a running circuit.
//
// A Store is created once per simulation and persists across triggers:
// flip-flops remember on/off, conjunctions remember the last level each
// predecessor sent. Only the simulator writes to it.
package state

import (
	"fmt"
	"maps"

	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
)

// conjunction is the memory of one conjunction module.
// highs is the number of entries currently High.
type conjunction struct {
	inputs map[string]ir.Level
	highs  int
}

// Store is the mutable state of every stateful module.
type Store struct {
	reg       *registry.Registry
	flipFlops map[string]bool
	conjs     map[string]*conjunction
}

// New creates a Store with every flip-flop off and every conjunction
// input Low. Conjunction inputs are exactly the registry's predecessors.
func New(reg *registry.Registry) *Store {
	s := &Store{
		reg:       reg,
		flipFlops: make(map[string]bool),
		conjs:     make(map[string]*conjunction),
	}
	s.Reset()
	return s
}

// Reset returns every module to its initial state.
func (s *Store) Reset() {
	clear(s.flipFlops)
	clear(s.conjs)
	for _, name := range s.reg.NamesOfKind(ir.KindFlipFlop) {
		s.flipFlops[name] = false
	}
	for _, name := range s.reg.NamesOfKind(ir.KindConjunction) {
		preds := s.reg.PredecessorsOf(name)
		c := &conjunction{inputs: make(map[string]ir.Level, len(preds))}
		for _, p := range preds {
			c.inputs[p] = ir.Low
		}
		s.conjs[name] = c
	}
}

// FlipFlopApply delivers a pulse to a flip-flop.
// High pulses are ignored (emitted is false). A Low pulse toggles the
// flip-flop and returns the new state as the output level.
func (s *Store) FlipFlopApply(name string, level ir.Level) (out ir.Level, emitted bool) {
	on, ok := s.flipFlops[name]
	if !ok {
		panic(fmt.Sprintf("state: %q is not a flip-flop", name))
	}
	if level == ir.High {
		return ir.Low, false
	}
	on = !on
	s.flipFlops[name] = on
	return ir.Level(on), true
}

// ConjunctionApply records level as the last pulse from sender and
// returns Low if every input is now High, High otherwise.
// Panics if sender is not a predecessor of name.
func (s *Store) ConjunctionApply(name, sender string, level ir.Level) ir.Level {
	c, ok := s.conjs[name]
	if !ok {
		panic(fmt.Sprintf("state: %q is not a conjunction", name))
	}
	prev, ok := c.inputs[sender]
	if !ok {
		panic(fmt.Sprintf("state: %q is not an input of conjunction %q", sender, name))
	}
	if prev != level {
		c.inputs[sender] = level
		if level == ir.High {
			c.highs++
		} else {
			c.highs--
		}
	}
	if c.highs == len(c.inputs) {
		return ir.Low
	}
	return ir.High
}

// BroadcasterApply forwards the level unchanged.
func (s *Store) BroadcasterApply(level ir.Level) ir.Level {
	return level
}

// FlipFlop reports whether the named flip-flop is on.
func (s *Store) FlipFlop(name string) bool {
	on, ok := s.flipFlops[name]
	if !ok {
		panic(fmt.Sprintf("state: %q is not a flip-flop", name))
	}
	return on
}

// Inputs returns a copy of a conjunction's remembered input levels.
func (s *Store) Inputs(name string) map[string]ir.Level {
	c, ok := s.conjs[name]
	if !ok {
		panic(fmt.Sprintf("state: %q is not a conjunction", name))
	}
	return maps.Clone(c.inputs)
}
