package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/state"
	"github.com/roach88/pulsenet/internal/store"
)

// maxTraceLines bounds the trace excerpt in an AssertionError.
const maxTraceLines = 20

// AssertionError describes a failed assertion: what was wanted, what was
// seen, and the part of the trace the assertion looked at.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []engine.TracedPulse
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed\n  want: %s\n  got:  %s\n", e.Type, e.Expected, e.Actual)

	if len(e.Trace) > 0 {
		b.WriteString("\ntrace:\n")
		for i, tp := range e.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(&b, "  ... %d more\n", len(e.Trace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&b, "  [%d.%d] %s\n", tp.Trigger, tp.Seq, tp.Pulse)
		}
	}

	return b.String()
}

// normalizePulse collapses whitespace so "a  -high->  b" matches "a -high-> b".
func normalizePulse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func scopeDesc(trigger int64) string {
	if trigger == 0 {
		return "trace"
	}
	return fmt.Sprintf("trigger %d", trigger)
}

// assertPulseContains checks that the pulse appears in the trace.
func assertPulseContains(result *Result, assertion Assertion) error {
	want := normalizePulse(assertion.Pulse)
	trace := result.TraceFor(assertion.Trigger)
	for _, tp := range trace {
		if tp.Pulse.String() == want {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertPulseContains,
		Expected: fmt.Sprintf("pulse %q in %s", want, scopeDesc(assertion.Trigger)),
		Actual:   "not found",
		Trace:    trace,
	}
}

// assertPulseOrder checks that pulses appear in the specified order.
// Pulses don't need to be consecutive (intervening pulses are allowed);
// each expected pulse is matched after the previous match.
func assertPulseOrder(result *Result, assertion Assertion) error {
	trace := result.TraceFor(assertion.Trigger)
	pos := 0
	for i, p := range assertion.Pulses {
		want := normalizePulse(p)
		found := false
		for pos < len(trace) {
			pos++
			if trace[pos-1].Pulse.String() == want {
				found = true
				break
			}
		}
		if !found {
			actual := fmt.Sprintf("%q not found after position %d", want, pos)
			if i == 0 {
				actual = fmt.Sprintf("%q not found", want)
			}
			return &AssertionError{
				Type:     AssertPulseOrder,
				Expected: fmt.Sprintf("pulses in order in %s: %v", scopeDesc(assertion.Trigger), assertion.Pulses),
				Actual:   actual,
				Trace:    trace,
			}
		}
	}

	return nil
}

// assertPulseCount checks that the pulse appears exactly Count times.
func assertPulseCount(result *Result, assertion Assertion) error {
	want := normalizePulse(assertion.Pulse)
	trace := result.TraceFor(assertion.Trigger)
	count := 0
	for _, tp := range trace {
		if tp.Pulse.String() == want {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertPulseCount,
			Expected: fmt.Sprintf("%d occurrences of %q in %s", assertion.Count, want, scopeDesc(assertion.Trigger)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks a module's state after the last press.
// A flip-flop expects {on: bool}; a conjunction expects a subset of its
// input memory as {input: "low"|"high"}.
func assertFinalState(snap state.Snapshot, assertion Assertion) error {
	if on, ok := snap.FlipFlops[assertion.Module]; ok {
		for key, want := range assertion.Expect {
			if key != "on" {
				return fmt.Errorf("final_state: flip-flop %s has no field %q", assertion.Module, key)
			}
			b, ok := want.(bool)
			if !ok {
				return fmt.Errorf("final_state: flip-flop %s: on must be a bool, got %T", assertion.Module, want)
			}
			if b != on {
				return &AssertionError{
					Type:     AssertFinalState,
					Expected: fmt.Sprintf("flip-flop %s on=%t", assertion.Module, b),
					Actual:   fmt.Sprintf("on=%t", on),
				}
			}
		}
		return nil
	}

	inputs, ok := snap.Conjunctions[assertion.Module]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("stateful module %s", assertion.Module),
			Actual:   "module is not a flip-flop or conjunction",
		}
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, input := range keys {
		want := fmt.Sprint(assertion.Expect[input])
		got, exists := inputs[input]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("conjunction %s to have input %s", assertion.Module, input),
				Actual:   fmt.Sprintf("inputs: %v", sortedInputs(inputs)),
			}
		}
		if want != got.String() {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("conjunction %s input %s = %s", assertion.Module, input, want),
				Actual:   fmt.Sprintf("%s = %s", input, got),
			}
		}
	}

	return nil
}

func sortedInputs(inputs map[string]ir.Level) []string {
	out := make([]string, 0, len(inputs))
	for name := range inputs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AssertionContext gives run_log assertions access to the run log.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions checks every assertion against result and returns
// one message per failure, in assertion order. actx may be nil when no
// run_log assertion is present.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertPulseContains:
			err = assertPulseContains(result, assertion)
		case AssertPulseOrder:
			err = assertPulseOrder(result, assertion)
		case AssertPulseCount:
			err = assertPulseCount(result, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertRunLog:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: run_log requires database context", i)
			} else {
				err = assertRunLog(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}
