package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// TraceSnapshot is the golden form of a scenario's leading triggers.
type TraceSnapshot struct {
	ScenarioName string
	Pulses       []engine.TracedPulse
}

// NewTraceSnapshot keeps the pulses of the first triggers triggers of result.
func NewTraceSnapshot(name string, result *Result, triggers int64) TraceSnapshot {
	snap := TraceSnapshot{ScenarioName: name}
	for _, tp := range result.Trace {
		if tp.Trigger > triggers {
			break
		}
		snap.Pulses = append(snap.Pulses, tp)
	}
	return snap
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s TraceSnapshot) MarshalCanonical() ([]byte, error) {
	rec := engine.Recorder{Pulses: s.Pulses}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"triggers":      rec.Canonical(),
	})
}

// RunWithGolden executes a scenario and compares its first
// golden_triggers triggers against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	if scenario.GoldenTriggers <= 0 {
		return nil, fmt.Errorf("scenario %s: golden_triggers is required", scenario.Name)
	}

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result, int64(scenario.GoldenTriggers)); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the leading triggers of an existing result
// against a golden file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result, triggers int64) error {
	t.Helper()

	data, err := NewTraceSnapshot(name, result, triggers).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
