package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/store"
)

func TestRunCommandText(t *testing.T) {
	tests := []struct {
		name    string
		circuit string
		args    []string
		want    string
	}{
		{
			name:    "classic default presses",
			circuit: classicCircuit,
			want:    "1000 presses: 8000 low, 4000 high\nproduct: 32000000\n",
		},
		{
			name:    "output default presses",
			circuit: outputCircuit,
			want:    "1000 presses: 4250 low, 2750 high\nproduct: 11687500\n",
		},
		{
			name:    "single press",
			circuit: classicCircuit,
			args:    []string{"-n", "1"},
			want:    "1 presses: 8 low, 4 high\nproduct: 32\n",
		},
		{
			name:    "zero presses",
			circuit: classicCircuit,
			args:    []string{"--presses", "0"},
			want:    "0 presses: 0 low, 0 high\nproduct: 0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCircuit(t, "circuit.txt", tt.circuit)
			cmd := NewRunCommand(&RootOptions{Format: "text"})

			out, _, err := execute(cmd, append(tt.args, path)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRunCommandJSON(t *testing.T) {
	path := writeCircuit(t, "classic.txt", classicCircuit)
	cmd := NewRunCommand(&RootOptions{Format: "json"})

	out, _, err := execute(cmd, path)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, path, resp.Data.Circuit)
	assert.Equal(t, 1000, resp.Data.Presses)
	assert.Equal(t, int64(8000), resp.Data.Lows)
	assert.Equal(t, int64(4000), resp.Data.Highs)
	assert.Equal(t, int64(32000000), resp.Data.Product)
	assert.Len(t, resp.Data.CircuitHash, 64)
	assert.Empty(t, resp.Data.RunID)
}

func TestRunCommandCUE(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "-n", "0", periodHubCircuit)
	require.NoError(t, err)
	assert.Contains(t, out, "0 presses")
}

func TestRunCommandLogsToStderr(t *testing.T) {
	path := writeCircuit(t, "classic.txt", classicCircuit)
	cmd := NewRunCommand(&RootOptions{Format: "json"})

	out, errOut, err := execute(cmd, "-n", "1", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "msg=\"circuit loaded\"")
	assert.Contains(t, errOut, "modules=5")
	assert.NotContains(t, out, "circuit loaded")
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		circuit  string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "negative presses",
			circuit:  classicCircuit,
			args:     []string{"--presses", "-1"},
			wantCode: ExitCommandError,
			wantOut:  "presses must be non-negative",
		},
		{
			name:     "two broadcasters",
			circuit:  "broadcaster -> a\nstart -> a\n%a -> out\n",
			wantCode: ExitFailure,
			wantOut:  "Error [MULTIPLE_BROADCASTERS]",
		},
		{
			name:     "unbounded loop",
			circuit:  "broadcaster -> x\n&x -> y\n&y -> x\n",
			wantCode: ExitFailure,
			wantOut:  "Error [UNBOUNDED_LOOP]",
		},
		{
			name:     "bad marker",
			circuit:  "broadcaster -> a\n?a -> b\n",
			wantCode: ExitFailure,
			wantOut:  "Error [PARSE_ERROR]",
		},
		{
			name:     "button as target",
			circuit:  "broadcaster -> button\n",
			wantCode: ExitFailure,
			wantOut:  "Error [E103]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCircuit(t, "circuit.txt", tt.circuit)
			cmd := NewRunCommand(&RootOptions{Format: "text"})

			out, _, err := execute(cmd, append(tt.args, path)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestRunCommandMissingFile(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})

	out, _, err := execute(cmd, filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
	assert.Contains(t, out, "circuit file not found")
}

func TestRunCommandWritesRunLog(t *testing.T) {
	path := writeCircuit(t, "classic.txt", classicCircuit)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		Presses:     4,
		Database:    dbPath,
		RunIDs:      store.NewSequenceGenerator("run-1"),
	}
	require.NoError(t, runPresses(opts, path, cmd))
	assert.Contains(t, buf.String(), "4 presses: 32 low, 16 high")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.CommandRun, run.Command)
	assert.Equal(t, int64(4), run.Presses)
	assert.Equal(t, int64(32), run.Lows)
	assert.Equal(t, int64(16), run.Highs)

	triggers, err := st.ReadTriggers(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, triggers, 4)
	for i, tr := range triggers {
		assert.Equal(t, int64(i+1), tr.Index)
		assert.Equal(t, int64(8), tr.Lows)
		assert.Equal(t, int64(4), tr.Highs)
	}
}

func TestRunCommandRunIDInJSON(t *testing.T) {
	path := writeCircuit(t, "classic.txt", classicCircuit)

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		Presses:     1,
		Database:    filepath.Join(t.TempDir(), "runs.db"),
		RunIDs:      store.NewSequenceGenerator("run-json"),
	}
	require.NoError(t, runPresses(opts, path, cmd))

	var resp struct {
		Data RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "run-json", resp.Data.RunID)
}
