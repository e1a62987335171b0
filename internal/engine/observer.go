package engine

import "github.com/roach88/pulsenet/internal/ir"

// Observer is notified of simulator progress.
//
// OnPulse is called for every pulse as it is delivered (after it leaves
// the queue, before the receiver reacts). OnTrigger is called once the
// queue has drained. Both run on the simulator goroutine and must not
// call back into the Simulator.
type Observer interface {
	OnPulse(trigger int64, p ir.Pulse)
	OnTrigger(r TriggerResult)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Pulse   func(trigger int64, p ir.Pulse)
	Trigger func(r TriggerResult)
}

// OnPulse implements Observer.
func (f ObserverFuncs) OnPulse(trigger int64, p ir.Pulse) {
	if f.Pulse != nil {
		f.Pulse(trigger, p)
	}
}

// OnTrigger implements Observer.
func (f ObserverFuncs) OnTrigger(r TriggerResult) {
	if f.Trigger != nil {
		f.Trigger(r)
	}
}

// TracedPulse is one delivered pulse with the trigger it belongs to.
type TracedPulse struct {
	Trigger int64
	Seq     int // 1-based delivery position within the trigger
	Pulse   ir.Pulse
}

// Recorder is an Observer that keeps the delivered pulses of the first
// Limit triggers (all triggers if Limit is 0) plus every trigger result.
type Recorder struct {
	Limit    int64
	Pulses   []TracedPulse
	Triggers []TriggerResult

	seq int
}

// NewRecorder creates a Recorder for the first limit triggers.
func NewRecorder(limit int64) *Recorder {
	return &Recorder{Limit: limit}
}

// OnPulse implements Observer.
func (r *Recorder) OnPulse(trigger int64, p ir.Pulse) {
	if r.Limit > 0 && trigger > r.Limit {
		return
	}
	r.seq++
	r.Pulses = append(r.Pulses, TracedPulse{Trigger: trigger, Seq: r.seq, Pulse: p})
}

// OnTrigger implements Observer.
func (r *Recorder) OnTrigger(res TriggerResult) {
	r.seq = 0
	r.Triggers = append(r.Triggers, res)
}

// Canonical converts the recorded pulses into a value accepted by
// ir.MarshalCanonical: one list of pulses per trigger.
func (r *Recorder) Canonical() []any {
	var out []any
	var current []any
	last := int64(0)
	flush := func() {
		if last == 0 {
			return
		}
		out = append(out, map[string]any{
			"trigger": last,
			"pulses":  current,
		})
	}
	for _, tp := range r.Pulses {
		if tp.Trigger != last {
			flush()
			last = tp.Trigger
			current = []any{}
		}
		current = append(current, tp.Pulse)
	}
	flush()
	if out == nil {
		out = []any{}
	}
	return out
}
