package ir

import (
	"errors"
	"fmt"
)

// Kind is the closed set of module kinds.
type Kind int

const (
	// KindSink absorbs pulses and emits nothing. Targets that have no
	// definition of their own are synthesized as sinks.
	KindSink Kind = iota
	// KindBroadcaster forwards every pulse unchanged to all targets.
	KindBroadcaster
	// KindFlipFlop toggles on a low pulse and ignores high pulses.
	KindFlipFlop
	// KindConjunction remembers the last level from each predecessor and
	// emits low only when all of them are high.
	KindConjunction
)

// Kind markers used by the puzzle text format.
const (
	MarkerBroadcaster = ""
	MarkerFlipFlop    = "%"
	MarkerConjunction = "&"
)

// ButtonName is the synthetic sender of the pulse that seeds every trigger.
const ButtonName = "button"

// ErrUnknownKind is returned when a kind marker or kind name is not recognised.
var ErrUnknownKind = errors.New("unknown module kind")

var kindNames = map[Kind]string{
	KindSink:        "sink",
	KindBroadcaster: "broadcaster",
	KindFlipFlop:    "flipflop",
	KindConjunction: "conjunction",
}

// String returns the lowercase kind name used in CUE files and logs.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the four defined kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Emits reports whether a module of this kind produces output on every
// delivered pulse. Loops made only of such modules never drain.
func (k Kind) Emits() bool {
	return k == KindBroadcaster || k == KindConjunction
}

// ParseKindMarker maps a text-format marker to a Kind.
// No marker means Broadcaster. Sinks have no marker; they are never
// declared in the text format.
func ParseKindMarker(marker string) (Kind, error) {
	switch marker {
	case MarkerBroadcaster:
		return KindBroadcaster, nil
	case MarkerFlipFlop:
		return KindFlipFlop, nil
	case MarkerConjunction:
		return KindConjunction, nil
	default:
		return KindSink, fmt.Errorf("%w: marker %q", ErrUnknownKind, marker)
	}
}

// ParseKindName maps a kind name ("broadcaster", "flipflop", "conjunction",
// "sink") to a Kind.
func ParseKindName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindSink, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Definition is one parsed module declaration: its name, kind and the
// ordered list of modules it emits to.
type Definition struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Targets []string `json:"targets"`
}

// Level is the value carried by a pulse.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// String returns "low" or "high".
func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Pulse is a single directed signal between two modules.
type Pulse struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Level Level  `json:"level"`
}

// String renders the pulse the way the puzzle text shows it: "a -high-> b".
func (p Pulse) String() string {
	return fmt.Sprintf("%s -%s-> %s", p.From, p.Level, p.To)
}
