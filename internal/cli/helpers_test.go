package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const classicCircuit = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

const outputCircuit = `broadcaster -> a
%a -> inv, con
&inv -> b
%b -> con
&con -> output
`

// periodHubCircuit is shared with the harness scenarios.
var periodHubCircuit = filepath.Join("..", "harness", "testdata", "circuits", "period_hub.cue")

func writeCircuit(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
