package state

import (
	"github.com/roach88/pulsenet/internal/ir"
)

// Snapshot is a point-in-time copy of a Store.
type Snapshot struct {
	FlipFlops    map[string]bool
	Conjunctions map[string]map[string]ir.Level
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		FlipFlops:    make(map[string]bool, len(s.flipFlops)),
		Conjunctions: make(map[string]map[string]ir.Level, len(s.conjs)),
	}
	for name, on := range s.flipFlops {
		snap.FlipFlops[name] = on
	}
	for name := range s.conjs {
		snap.Conjunctions[name] = s.Inputs(name)
	}
	return snap
}

// Initial reports whether every flip-flop is off and every conjunction
// input is Low.
func (snap Snapshot) Initial() bool {
	for _, on := range snap.FlipFlops {
		if on {
			return false
		}
	}
	for _, inputs := range snap.Conjunctions {
		for _, l := range inputs {
			if l == ir.High {
				return false
			}
		}
	}
	return true
}

// Canonical converts the snapshot into a value accepted by
// ir.MarshalCanonical.
func (snap Snapshot) Canonical() map[string]any {
	ffs := make(map[string]any, len(snap.FlipFlops))
	for name, on := range snap.FlipFlops {
		ffs[name] = on
	}
	conjs := make(map[string]any, len(snap.Conjunctions))
	for name, inputs := range snap.Conjunctions {
		m := make(map[string]any, len(inputs))
		for sender, l := range inputs {
			m[sender] = l.String()
		}
		conjs[name] = m
	}
	return map[string]any{
		"flipflops":    ffs,
		"conjunctions": conjs,
	}
}
