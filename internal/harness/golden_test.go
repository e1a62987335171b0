package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

func TestTraceSnapshotCanonical(t *testing.T) {
	r := NewResult()
	r.Trace = []engine.TracedPulse{
		{Trigger: 1, Seq: 1, Pulse: ir.Pulse{From: "button", To: "broadcaster", Level: ir.Low}},
		{Trigger: 2, Seq: 1, Pulse: ir.Pulse{From: "button", To: "broadcaster", Level: ir.Low}},
	}

	data, err := NewTraceSnapshot("tiny", r, 1).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"tiny","triggers":[{"pulses":[{"from":"button","level":"low","to":"broadcaster"}],"trigger":1}]}`,
		string(data))
}

func TestTraceSnapshotEmpty(t *testing.T) {
	data, err := NewTraceSnapshot("none", NewResult(), 3).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"none","triggers":[]}`, string(data))
}

func TestRunWithGoldenRequiresTriggers(t *testing.T) {
	s := &Scenario{Name: "x", Description: "d", Circuit: "broadcaster -> a\n"}
	_, err := RunWithGolden(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "golden_triggers is required")
}

func TestAssertGoldenFlipFlopChain(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/flip_flop_chain.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "flip_flop_chain", result, 1))
}
