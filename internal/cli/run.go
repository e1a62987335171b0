package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Presses     int
	Database    string
	MetricsAddr string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// RunOutput is the result of the run command.
type RunOutput struct {
	Circuit     string `json:"circuit"`
	CircuitHash string `json:"circuit_hash"`
	Presses     int    `json:"presses"`
	Lows        int64  `json:"lows"`
	Highs       int64  `json:"highs"`
	Product     int64  `json:"product"`
	RunID       string `json:"run_id,omitempty"`
}

func (o RunOutput) String() string {
	return fmt.Sprintf("%d presses: %d low, %d high\nproduct: %d", o.Presses, o.Lows, o.Highs, o.Product)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <circuit>",
		Short: "Press the button and count pulses",
		Long: `Press the button a number of times and report the low and high
pulse totals and their product.

Circuit files ending in .cue are read as CUE; any other file is read in
the puzzle text format.

Example:
  pulsenet run ./circuit.txt
  pulsenet run --presses 5000 --db ./runs.db ./circuit.cue
  pulsenet run --metrics-addr :9090 ./circuit.txt --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresses(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Presses, "presses", "n", engine.DefaultPresses, "number of button presses")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (optional; per-trigger tallies capped at 10000)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runPresses(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Presses < 0 {
		_ = formatter.Error(ErrCodeGeneric, "presses must be non-negative", nil)
		return NewExitError(ExitCommandError, "presses must be non-negative")
	}

	circuit, err := LoadCircuit(path)
	if err != nil {
		return failLoad(formatter, err)
	}
	logger.Info("circuit loaded",
		"path", path,
		"modules", circuit.Registry.Len(),
		"hash", circuit.Registry.Hash(),
	)

	session, err := openSession(circuit, opts.Database, opts.MetricsAddr, logger)
	defer session.close()
	if err != nil {
		return failSession(formatter, err)
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	sim := engine.NewSimulator(circuit.Registry, session.opts...)
	logger.Info("pressing", "presses", opts.Presses)
	totals, err := sim.Run(ctx, opts.Presses)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "run interrupted", err)
	}

	out := RunOutput{
		Circuit:     path,
		CircuitHash: circuit.Registry.Hash(),
		Presses:     opts.Presses,
		Lows:        totals.Lows,
		Highs:       totals.Highs,
		Product:     totals.Product(),
	}

	if session.store != nil {
		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = store.UUIDv7Generator{}
		}
		run, err := session.store.WriteRun(ctx, circuit.Definitions, store.Run{
			ID:      runIDs.Generate(),
			Command: store.CommandRun,
			Presses: int64(opts.Presses),
			Lows:    totals.Lows,
			Highs:   totals.Highs,
		}, session.runLog.Triggers(), nil)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write run log", err)
		}
		out.RunID = run.ID
		logger.Info("run logged", "run_id", run.ID)
	}

	return formatter.Success(out)
}
