package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
	"github.com/roach88/pulsenet/internal/state"
)

// DefaultPresses is the trigger count used when none is given.
const DefaultPresses = 1000

// Tally counts delivered pulses by level.
type Tally struct {
	Lows  int64 `json:"lows"`
	Highs int64 `json:"highs"`
}

// Product returns Lows * Highs.
func (t Tally) Product() int64 {
	return t.Lows * t.Highs
}

// Add returns the sum of two tallies.
func (t Tally) Add(o Tally) Tally {
	return Tally{Lows: t.Lows + o.Lows, Highs: t.Highs + o.Highs}
}

func (t *Tally) count(l ir.Level) {
	if l == ir.High {
		t.Highs++
	} else {
		t.Lows++
	}
}

// TriggerResult summarizes one completed trigger.
type TriggerResult struct {
	Index int64 `json:"index"`
	Tally

	// MaxDepth is the longest the queue got during the trigger.
	MaxDepth int `json:"max_depth"`
}

// Simulator is the single-writer pulse engine.
//
// The simulator owns the pulse queue and the state store. Every call
// runs to completion on the calling goroutine; Simulator is not safe for
// concurrent use.
//
// INVARIANTS:
//   - the queue is empty between triggers
//   - trigger indices increase by exactly one per Press
//   - Totals equals the sum of every TriggerResult returned so far
type Simulator struct {
	reg       *registry.Registry
	state     *state.Store
	queue     *pulseQueue
	clock     *Clock
	totals    Tally
	observers []Observer
	logger    *slog.Logger
}

// SimulatorOption allows configuration of simulator parameters.
type SimulatorOption func(*Simulator)

// WithObserver registers an observer. Observers are notified in
// registration order.
func WithObserver(o Observer) SimulatorOption {
	return func(s *Simulator) {
		s.observers = append(s.observers, o)
	}
}

// WithLogger sets the logger used for per-trigger debug output.
// Default: slog.Default().
func WithLogger(l *slog.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = l
	}
}

// NewSimulator creates a Simulator over reg with fresh state.
func NewSimulator(reg *registry.Registry, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		reg:    reg,
		state:  state.New(reg),
		queue:  newPulseQueue(),
		clock:  NewClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe registers an observer after construction.
func (s *Simulator) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// Press runs one trigger: it seeds a Low pulse from the button to the
// broadcaster and delivers pulses in FIFO order until none are left.
func (s *Simulator) Press() TriggerResult {
	trigger := s.clock.Next()
	res := TriggerResult{Index: trigger}

	s.queue.Push(ir.Pulse{From: ir.ButtonName, To: s.reg.Broadcaster(), Level: ir.Low})
	for {
		res.MaxDepth = max(res.MaxDepth, s.queue.Len())
		p, ok := s.queue.Pop()
		if !ok {
			break
		}
		res.count(p.Level)
		for _, o := range s.observers {
			o.OnPulse(trigger, p)
		}
		s.deliver(p)
	}

	s.totals = s.totals.Add(res.Tally)
	for _, o := range s.observers {
		o.OnTrigger(res)
	}

	s.logger.Debug("trigger complete",
		"trigger", trigger,
		"lows", res.Lows,
		"highs", res.Highs,
		"max_depth", res.MaxDepth,
	)
	return res
}

// deliver applies p to its receiver and queues whatever it emits.
func (s *Simulator) deliver(p ir.Pulse) {
	m := s.reg.Module(p.To)
	switch m.Kind {
	case ir.KindBroadcaster:
		s.emit(m, s.state.BroadcasterApply(p.Level))
	case ir.KindFlipFlop:
		if out, ok := s.state.FlipFlopApply(m.Name, p.Level); ok {
			s.emit(m, out)
		}
	case ir.KindConjunction:
		s.emit(m, s.state.ConjunctionApply(m.Name, p.From, p.Level))
	case ir.KindSink:
	default:
		panic(fmt.Sprintf("engine: module %q has undefined kind %s", m.Name, m.Kind))
	}
}

func (s *Simulator) emit(m registry.Module, level ir.Level) {
	for _, t := range m.Targets {
		s.queue.Push(ir.Pulse{From: m.Name, To: t, Level: level})
	}
}

// Run presses the button n times and returns the running totals.
// The context is checked between triggers; a trigger in progress always
// completes. n <= 0 presses nothing.
func (s *Simulator) Run(ctx context.Context, n int) (Tally, error) {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return s.totals, fmt.Errorf("run stopped after %d of %d triggers: %w", i, n, err)
		}
		s.Press()
	}
	return s.totals, nil
}

// Totals returns the pulses delivered over every trigger so far.
func (s *Simulator) Totals() Tally {
	return s.totals
}

// Triggers returns the number of completed triggers.
func (s *Simulator) Triggers() int64 {
	return s.clock.Current()
}

// State returns the simulator's state store.
func (s *Simulator) State() *state.Store {
	return s.state
}

// Registry returns the circuit topology.
func (s *Simulator) Registry() *registry.Registry {
	return s.reg
}

// Reset restores initial state and clears totals and the trigger clock.
// Observers stay registered.
func (s *Simulator) Reset() {
	s.state.Reset()
	s.queue.Reset()
	s.clock.Reset()
	s.totals = Tally{}
}
