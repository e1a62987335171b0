package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - list runs when empty
	Limit    int    // trigger rows to show, 0 for all
}

// TraceResult holds one logged run.
type TraceResult struct {
	Run      store.Run              `json:"run"`
	Modules  int                    `json:"modules"`
	Triggers []engine.TriggerResult `json:"triggers"`
	Periods  []engine.Period        `json:"periods"`
	Omitted  int                    `json:"omitted_triggers,omitempty"`
}

func (r TraceResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s (%s)\n", r.Run.ID, r.Run.Command)
	fmt.Fprintf(&b, "Circuit: %s (%d modules)\n", r.Run.CircuitHash, r.Modules)
	fmt.Fprintf(&b, "Engine: %s\n", r.Run.EngineVersion)
	fmt.Fprintf(&b, "Presses: %d  Low: %d  High: %d  Product: %d\n",
		r.Run.Presses, r.Run.Lows, r.Run.Highs, r.Run.Lows*r.Run.Highs)
	if r.Run.Command == store.CommandWatch {
		fmt.Fprintf(&b, "Watched: %s  Answer: %d (%s)\n", r.Run.Watched, r.Run.Answer, r.Run.Method)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "=== Triggers ===")
	if len(r.Triggers) == 0 {
		fmt.Fprintln(&b, "  (none logged)")
	}
	for _, t := range r.Triggers {
		fmt.Fprintf(&b, "  [%d] low=%d high=%d depth=%d\n", t.Index, t.Lows, t.Highs, t.MaxDepth)
	}
	if r.Omitted > 0 {
		fmt.Fprintf(&b, "  ... %d more\n", r.Omitted)
	}

	if len(r.Periods) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "=== Periods ===")
		for _, p := range r.Periods {
			state := "unconfirmed"
			if p.Confirmed {
				state = "confirmed"
			}
			fmt.Fprintf(&b, "  %s: %d (%s)\n", p.Module, p.Period, state)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// RunList is every logged run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs logged."
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMMAND\tPRESSES\tLOW\tHIGH\tANSWER")
	for _, r := range l.Runs {
		answer := "-"
		if r.Command == store.CommandWatch {
			answer = fmt.Sprintf("%d (%s)", r.Answer, r.Method)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", r.ID, r.Command, r.Presses, r.Lows, r.Highs, answer)
	}
	_ = tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show logged runs",
		Long: `Show runs recorded with --db by the run and watch commands.

Without --run, every logged run is listed. With --run, the run's
per-press tallies and any recorded periods are shown.

Examples:
  pulsenet trace --db ./runs.db
  pulsenet trace --db ./runs.db --run 0190a1b2-...
  pulsenet trace --db ./runs.db --run 0190a1b2-... --limit 0 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "trigger rows to show (0 for all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		msg := fmt.Sprintf("run log not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return formatter.Success(RunList{Runs: runs})
	}

	result, err := readTrace(ctx, st, opts.RunID, opts.Limit)
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("run not found: %s", opts.RunID)
		_ = formatter.Error(ErrCodeNoRun, msg, nil)
		return NewExitError(ExitFailure, msg)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	return formatter.Success(result)
}

func readTrace(ctx context.Context, st *store.Store, runID string, limit int) (TraceResult, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	defs, err := st.ReadCircuit(ctx, run.CircuitHash)
	if err != nil {
		return TraceResult{}, fmt.Errorf("read circuit: %w", err)
	}
	triggers, err := st.ReadTriggers(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	periods, err := st.ReadPeriods(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{
		Run:      run,
		Modules:  len(defs),
		Triggers: triggers,
		Periods:  periods,
	}
	if limit > 0 && len(triggers) > limit {
		result.Triggers = triggers[:limit]
		result.Omitted = len(triggers) - limit
	}
	return result, nil
}
