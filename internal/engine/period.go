package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pulsenet/internal/ir"
)

// Method names how a PeriodDetector reached its answer.
type Method string

const (
	// MethodLCM means the answer was extrapolated from predecessor periods.
	MethodLCM Method = "lcm"
	// MethodBruteForce means the answer trigger was observed directly.
	MethodBruteForce Method = "brute_force"
)

// Period is the first trigger on which a predecessor sent High to the
// watched module. Once recorded it is never overwritten.
type Period struct {
	Module    string `json:"module"`
	Period    int64  `json:"period"`
	Confirmed bool   `json:"confirmed"`
}

// Result is the answer of a period search.
type Result struct {
	// Answer is the first trigger on which the watched module heard High
	// from every predecessor.
	Answer int64 `json:"answer"`

	Method Method `json:"method"`

	// Periods holds one entry per predecessor seen sending High, in
	// predecessor order.
	Periods []Period `json:"periods"`

	// Triggers is the number of triggers pressed to reach the answer.
	Triggers int64 `json:"triggers"`
}

// PeriodDetector watches one module and finds the first trigger on which
// all of its predecessors send it High.
//
// Two strategies run side by side:
//   - Brute force: observe the trigger directly. Always correct, but the
//     answer may be astronomically far away.
//   - LCM: record each predecessor's first High trigger as its period and
//     extrapolate with LCM. Only used when every predecessor is a
//     conjunction (each is assumed to sit at the end of an independent
//     counter that fires once per cycle).
//
// By default a period p is trusted only after the predecessor is seen
// sending High again on trigger 2p. If that check fails the LCM path is
// abandoned and the search continues by brute force.
//
// A directly observed answer always wins, whichever path is active.
type PeriodDetector struct {
	sim     *Simulator
	watched string
	preds   []string
	index   map[string]int
	logger  *slog.Logger

	lcmApplicable bool
	confirm       bool
	maxTriggers   int64

	first     []int64 // first High trigger per predecessor, 0 = unseen
	confirmed []bool
	lastHigh  []int64 // latest trigger with a High per predecessor
	failed    bool    // confirmation failed; LCM path abandoned

	answer int64
	method Method
}

// PeriodOption configures a PeriodDetector.
type PeriodOption func(*PeriodDetector)

// WithoutConfirmation trusts the first High of each predecessor as its
// period without re-observing it at twice the period.
func WithoutConfirmation() PeriodOption {
	return func(d *PeriodDetector) {
		d.confirm = false
	}
}

// WithMaxTriggers bounds the number of triggers Solve may press.
// Default: DefaultMaxTriggers. Zero or less means unlimited.
func WithMaxTriggers(n int64) PeriodOption {
	return func(d *PeriodDetector) {
		d.maxTriggers = n
	}
}

// WithDetectorLogger sets the logger for search progress.
// Default: slog.Default().
func WithDetectorLogger(l *slog.Logger) PeriodOption {
	return func(d *PeriodDetector) {
		d.logger = l
	}
}

// NewPeriodDetector attaches a detector for watched to sim.
//
// Trigger indices in the result are the simulator's, so sim should not
// have been pressed yet.
func NewPeriodDetector(sim *Simulator, watched string, opts ...PeriodOption) (*PeriodDetector, error) {
	reg := sim.Registry()
	if _, ok := reg.Lookup(watched); !ok {
		return nil, NewMissingWatchedModuleError(watched, "module is not in the circuit")
	}
	preds := reg.PredecessorsOf(watched)
	if len(preds) == 0 {
		return nil, NewMissingWatchedModuleError(watched, "module has no predecessors")
	}

	d := &PeriodDetector{
		sim:           sim,
		watched:       watched,
		preds:         preds,
		index:         make(map[string]int, len(preds)),
		logger:        slog.Default(),
		lcmApplicable: true,
		confirm:       true,
		maxTriggers:   DefaultMaxTriggers,
		first:         make([]int64, len(preds)),
		confirmed:     make([]bool, len(preds)),
		lastHigh:      make([]int64, len(preds)),
	}
	for i, p := range preds {
		d.index[p] = i
		if reg.Module(p).Kind != ir.KindConjunction {
			d.lcmApplicable = false
		}
	}
	for _, opt := range opts {
		opt(d)
	}

	sim.Observe(d)
	return d, nil
}

// Watched returns the watched module.
func (d *PeriodDetector) Watched() string {
	return d.watched
}

// LCMApplicable reports whether every predecessor is a conjunction.
func (d *PeriodDetector) LCMApplicable() bool {
	return d.lcmApplicable
}

// OnPulse implements Observer.
func (d *PeriodDetector) OnPulse(trigger int64, p ir.Pulse) {
	if p.To != d.watched || p.Level != ir.High {
		return
	}
	i, ok := d.index[p.From]
	if !ok {
		return
	}
	d.lastHigh[i] = trigger
	if d.first[i] == 0 {
		d.first[i] = trigger
		d.logger.Debug("period recorded",
			"watched", d.watched,
			"module", p.From,
			"period", trigger,
		)
	}
}

// OnTrigger implements Observer.
func (d *PeriodDetector) OnTrigger(r TriggerResult) {
	if d.answer != 0 {
		return
	}

	all := true
	for _, t := range d.lastHigh {
		if t != r.Index {
			all = false
			break
		}
	}
	if all {
		d.answer, d.method = r.Index, MethodBruteForce
		return
	}

	if !d.lcmApplicable || d.failed {
		return
	}

	ready := true
	for i, p := range d.first {
		switch {
		case p == 0:
			ready = false
		case !d.confirm || d.confirmed[i]:
		case r.Index < 2*p:
			ready = false
		case r.Index == 2*p && d.lastHigh[i] == r.Index:
			d.confirmed[i] = true
		default:
			d.failed = true
			d.logger.Debug("period not confirmed, falling back to brute force",
				"watched", d.watched,
				"module", d.preds[i],
				"period", p,
				"trigger", r.Index,
			)
			return
		}
	}
	if !ready {
		return
	}

	answer, ok := lcm(d.first...)
	if !ok {
		d.failed = true
		d.logger.Warn("period LCM overflows, falling back to brute force",
			"watched", d.watched,
			"periods", fmt.Sprint(d.first),
		)
		return
	}
	if answer <= r.Index {
		// Every trigger through r.Index ran without all predecessors agreeing.
		d.failed = true
		d.logger.Debug("LCM answer already observed false, falling back to brute force",
			"watched", d.watched,
			"answer", answer,
			"trigger", r.Index,
		)
		return
	}
	d.answer, d.method = answer, MethodLCM
}

// Done reports whether an answer has been found.
func (d *PeriodDetector) Done() bool {
	return d.answer != 0
}

// Result returns the answer found so far.
// ok is false until the detector has an answer.
func (d *PeriodDetector) Result() (res Result, ok bool) {
	if d.answer == 0 {
		return Result{}, false
	}
	return Result{
		Answer:   d.answer,
		Method:   d.method,
		Periods:  d.Periods(),
		Triggers: d.sim.Triggers(),
	}, true
}

// Periods returns the periods recorded so far, in predecessor order.
func (d *PeriodDetector) Periods() []Period {
	out := []Period{}
	for i, p := range d.first {
		if p == 0 {
			continue
		}
		out = append(out, Period{Module: d.preds[i], Period: p, Confirmed: d.confirmed[i]})
	}
	return out
}

// Solve presses the button until the detector has an answer.
//
// Returns a TRIGGER_LIMIT_EXCEEDED RuntimeError once the trigger limit is
// reached, or the context error if ctx is done. The context is checked
// between triggers.
func (d *PeriodDetector) Solve(ctx context.Context) (Result, error) {
	budget := newTriggerBudget(d.maxTriggers)
	for {
		if res, ok := d.Result(); ok {
			d.logger.Debug("watch solved",
				"watched", d.watched,
				"answer", res.Answer,
				"method", res.Method,
				"triggers", res.Triggers,
			)
			return res, nil
		}
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("watch %s: %w", d.watched, err)
		}
		if err := budget.Check(d.watched, d.sim.Triggers()); err != nil {
			return Result{}, err
		}
		d.sim.Press()
	}
}
