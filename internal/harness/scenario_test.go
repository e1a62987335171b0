package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/engine"
)

func TestParseScenarioValid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: tiny
description: one press
circuit: |
  broadcaster -> a
  %a -> out
presses: 1
expect:
  lows: 2
`))
	require.NoError(t, err)
	assert.Equal(t, "tiny", s.Name)
	assert.Equal(t, 1, s.presses())
	require.NotNil(t, s.Expect)
	require.NotNil(t, s.Expect.Lows)
	assert.Equal(t, int64(2), *s.Expect.Lows)
	assert.Nil(t, s.Expect.Highs)
}

func TestParseScenarioDefaultPresses(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: default
description: default presses
circuit: "broadcaster -> a"
golden_triggers: 1
`))
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultPresses, s.presses())
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: d\ncircuit: c\nexpects: {}\n",
			want: "field expects not found",
		},
		{
			name: "missing name",
			yaml: "description: d\ncircuit: c\ngolden_triggers: 1\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\ncircuit: c\ngolden_triggers: 1\n",
			want: "description is required",
		},
		{
			name: "no circuit",
			yaml: "name: x\ndescription: d\ngolden_triggers: 1\n",
			want: "exactly one of circuit and circuit_file",
		},
		{
			name: "both circuits",
			yaml: "name: x\ndescription: d\ncircuit: c\ncircuit_file: f.txt\ngolden_triggers: 1\n",
			want: "exactly one of circuit and circuit_file",
		},
		{
			name: "negative presses",
			yaml: "name: x\ndescription: d\ncircuit: c\npresses: -1\ngolden_triggers: 1\n",
			want: "presses must be non-negative",
		},
		{
			name: "nothing to check",
			yaml: "name: x\ndescription: d\ncircuit: c\n",
			want: "scenario checks nothing",
		},
		{
			name: "expect_error with expect",
			yaml: "name: x\ndescription: d\ncircuit: c\nexpect_error: E101\nexpect: {lows: 1}\n",
			want: "expect_error cannot be combined",
		},
		{
			name: "watch module and target",
			yaml: "name: x\ndescription: d\ncircuit: c\nwatch: {module: a, target: b, answer: 1}\n",
			want: "exactly one of module and target",
		},
		{
			name: "watch unknown method",
			yaml: "name: x\ndescription: d\ncircuit: c\nwatch: {module: a, answer: 1, method: guess}\n",
			want: `unknown method "guess"`,
		},
		{
			name: "watch without answer",
			yaml: "name: x\ndescription: d\ncircuit: c\nwatch: {module: a}\n",
			want: "answer or expect_error is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: d\ncircuit: c\nassertions: [{type: vibes}]\n",
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "pulse_contains without pulse",
			yaml: "name: x\ndescription: d\ncircuit: c\nassertions: [{type: pulse_contains}]\n",
			want: "pulse is required for pulse_contains",
		},
		{
			name: "final_state without expect",
			yaml: "name: x\ndescription: d\ncircuit: c\nassertions: [{type: final_state, module: a}]\n",
			want: "expect is required for final_state",
		},
		{
			name: "run_log without table",
			yaml: "name: x\ndescription: d\ncircuit: c\nassertions: [{type: run_log, expect: {lows: 1}}]\n",
			want: "table is required for run_log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioResolvesCircuitFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/classic_output.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "circuits", "classic_output.txt"), s.circuitPath())
}

func TestLoadScenarioMissingCircuitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"name: missing\ndescription: d\ncircuit_file: nope.txt\ngolden_triggers: 1\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit file not found")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenariosFilter(t *testing.T) {
	all, err := LoadScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, all)

	rejects, err := LoadScenarios("testdata/scenarios", "reject_*")
	require.NoError(t, err)
	require.Len(t, rejects, 4)
	for _, s := range rejects {
		assert.NotEmpty(t, s.ExpectError, s.Name)
	}

	_, err = LoadScenarios("testdata/scenarios", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}
