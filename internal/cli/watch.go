package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/store"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Module      string
	Target      string
	NoConfirm   bool
	MaxTriggers int64
	Database    string
	MetricsAddr string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// WatchOutput is the result of the watch command.
type WatchOutput struct {
	Circuit     string          `json:"circuit"`
	CircuitHash string          `json:"circuit_hash"`
	Target      string          `json:"target,omitempty"`
	Watched     string          `json:"watched"`
	Answer      int64           `json:"answer"`
	Method      engine.Method   `json:"method"`
	Triggers    int64           `json:"triggers"`
	Periods     []engine.Period `json:"periods"`
	RunID       string          `json:"run_id,omitempty"`
}

func (o WatchOutput) String() string {
	var b strings.Builder
	if o.Target != "" && o.Target != o.Watched {
		fmt.Fprintf(&b, "%s is fed by %s; watching %s\n", o.Target, o.Watched, o.Watched)
	}
	for _, p := range o.Periods {
		if o.Method != engine.MethodLCM {
			break
		}
		state := "unconfirmed"
		if p.Confirmed {
			state = "confirmed"
		}
		fmt.Fprintf(&b, "  %s: period %d (%s)\n", p.Module, p.Period, state)
	}
	fmt.Fprintf(&b, "answer: %d (%s, %d presses simulated)", o.Answer, o.Method, o.Triggers)
	return b.String()
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <circuit>",
		Short: "Find the first press on which a module hears High from all inputs",
		Long: `Press the button until a module has heard High from every one of its
inputs within a single press, and report that press.

When every input is a conjunction, each input's first High is taken as
its period and the answer is extrapolated with LCM. A period p is only
trusted once the input sends High again on press 2p, unless --no-confirm
is given. Otherwise the answer is found by observation, which may take
astronomically long; --max-triggers bounds the search.

With --target, the question is asked about a module that should receive
a low pulse (such as "rx"): if it is fed by a single conjunction, that
conjunction is watched.

Example:
  pulsenet watch --target rx ./circuit.txt
  pulsenet watch --module hub --no-confirm ./circuit.cue
  pulsenet watch --target rx --max-triggers 100000 --db ./runs.db ./circuit.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "module whose inputs are watched")
	cmd.Flags().StringVar(&opts.Target, "target", "", "module that should receive a low pulse")
	cmd.MarkFlagsMutuallyExclusive("module", "target")
	cmd.MarkFlagsOneRequired("module", "target")
	cmd.Flags().BoolVar(&opts.NoConfirm, "no-confirm", false, "trust the first High of each input as its period")
	cmd.Flags().Int64Var(&opts.MaxTriggers, "max-triggers", engine.DefaultMaxTriggers, "give up after this many presses")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (optional; per-trigger tallies capped at 10000)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.MaxTriggers <= 0 {
		_ = formatter.Error(ErrCodeGeneric, "max-triggers must be positive", nil)
		return NewExitError(ExitCommandError, "max-triggers must be positive")
	}

	circuit, err := LoadCircuit(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	watched := opts.Module
	if opts.Target != "" {
		watched, err = engine.ResolveWatch(circuit.Registry, opts.Target)
		if err != nil {
			return failRuntime(formatter, err)
		}
		logger.Info("resolved target", "target", opts.Target, "watched", watched)
	}

	session, err := openSession(circuit, opts.Database, opts.MetricsAddr, logger)
	defer session.close()
	if err != nil {
		return failSession(formatter, err)
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	detOpts := []engine.PeriodOption{
		engine.WithMaxTriggers(opts.MaxTriggers),
		engine.WithDetectorLogger(logger),
	}
	if opts.NoConfirm {
		detOpts = append(detOpts, engine.WithoutConfirmation())
	}

	sim := engine.NewSimulator(circuit.Registry, session.opts...)
	det, err := engine.NewPeriodDetector(sim, watched, detOpts...)
	if err != nil {
		return failRuntime(formatter, err)
	}
	if !det.LCMApplicable() {
		logger.Warn("inputs are not all conjunctions; searching by observation", "watched", watched)
	}

	res, err := det.Solve(ctx)
	if err != nil {
		return failRuntime(formatter, err)
	}

	out := WatchOutput{
		Circuit:     path,
		CircuitHash: circuit.Registry.Hash(),
		Target:      opts.Target,
		Watched:     watched,
		Answer:      res.Answer,
		Method:      res.Method,
		Triggers:    res.Triggers,
		Periods:     res.Periods,
	}

	if session.store != nil {
		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = store.UUIDv7Generator{}
		}
		run, err := session.store.WriteRun(ctx, circuit.Definitions, store.Run{
			ID:      runIDs.Generate(),
			Command: store.CommandWatch,
			Presses: res.Triggers,
			Lows:    sim.Totals().Lows,
			Highs:   sim.Totals().Highs,
			Watched: watched,
			Answer:  res.Answer,
			Method:  string(res.Method),
		}, session.runLog.Triggers(), res.Periods)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write run log", err)
		}
		out.RunID = run.ID
		logger.Info("run logged", "run_id", run.ID)
	}

	return formatter.Success(out)
}

// failRuntime reports a watch error. Runtime errors keep their code.
func failRuntime(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var details interface{}
	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) {
		code = string(rtErr.Code)
		if len(rtErr.Details) > 0 {
			details = rtErr.Details
		}
	}
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, "watch failed", err)
}
