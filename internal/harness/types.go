package harness

import (
	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/state"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	// Totals are the pulse counts over all presses.
	Totals engine.Tally `json:"totals"`

	// Watch is the period search outcome, if the scenario watched a module.
	Watch *engine.Result `json:"watch,omitempty"`

	// CircuitHash identifies the simulated circuit.
	CircuitHash string `json:"circuit_hash,omitempty"`

	// Trace contains every delivered pulse in delivery order.
	Trace []engine.TracedPulse `json:"-"`

	// State is the module state after the last press.
	State state.Snapshot `json:"-"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []engine.TracedPulse{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// TraceFor returns the pulses of one trigger, or every pulse if trigger is 0.
func (r *Result) TraceFor(trigger int64) []engine.TracedPulse {
	if trigger == 0 {
		return r.Trace
	}
	var out []engine.TracedPulse
	for _, tp := range r.Trace {
		if tp.Trigger == trigger {
			out = append(out, tp)
		}
	}
	return out
}
