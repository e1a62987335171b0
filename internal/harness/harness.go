package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
	"github.com/roach88/pulsenet/internal/store"
	"github.com/roach88/pulsenet/internal/testutil"
)

// Error codes reported for circuits rejected before reaching the registry.
const (
	CodeParseError   = "PARSE_ERROR"
	CodeCompileError = "COMPILE_ERROR"
)

// Harness runs one scenario against a fresh in-memory run log.
type Harness struct {
	store  *store.Store
	runIDs store.RunIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed run ID so that run log assertions are reproducible.
//
// Execution flow:
// 1. Load the circuit and build its registry
// 2. Press the button, recording the trace and logging the run
// 3. Check expected totals
// 4. Run the period search, if any, on a fresh simulator
// 5. Evaluate assertions
//
// A circuit that fails to load is a scenario failure when expect_error
// names a different code, and an error when no error was expected.
func Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	defs, reg, err := loadCircuit(scenario)
	if scenario.ExpectError != "" {
		switch code := ErrorCode(err); {
		case err == nil:
			result.AddError(fmt.Sprintf("expected error %s, circuit is valid", scenario.ExpectError))
		case code != scenario.ExpectError:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", scenario.ExpectError, code, err))
		}
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.CircuitHash = reg.Hash()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runIDs: testutil.NewFixedRunIDGenerator(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	runID := h.runIDs.Generate()

	if err := h.press(ctx, scenario, defs, reg, runID, result); err != nil {
		return nil, err
	}

	if scenario.Watch != nil {
		if err := h.watch(ctx, scenario.Watch, defs, reg, runID+"-watch", result); err != nil {
			return nil, err
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) press(
	ctx context.Context,
	scenario *Scenario,
	defs []ir.Definition,
	reg *registry.Registry,
	runID string,
	result *Result,
) error {
	rec := engine.NewRecorder(0)
	runLog := store.NewRunLog(store.DefaultRunLogTriggers)
	sim := engine.NewSimulator(reg,
		engine.WithObserver(rec),
		engine.WithObserver(runLog),
		engine.WithLogger(h.logger),
	)

	presses := scenario.presses()
	totals, err := sim.Run(ctx, presses)
	if err != nil {
		return err
	}

	_, err = h.store.WriteRun(ctx, defs, store.Run{
		ID:      runID,
		Command: store.CommandRun,
		Presses: int64(presses),
		Lows:    totals.Lows,
		Highs:   totals.Highs,
	}, runLog.Triggers(), nil)
	if err != nil {
		return fmt.Errorf("failed to log run: %w", err)
	}

	result.Totals = totals
	result.Trace = rec.Pulses
	result.State = sim.State().Snapshot()

	if e := scenario.Expect; e != nil {
		if e.Lows != nil && *e.Lows != totals.Lows {
			result.AddError(fmt.Sprintf("expected %d low pulses, got %d", *e.Lows, totals.Lows))
		}
		if e.Highs != nil && *e.Highs != totals.Highs {
			result.AddError(fmt.Sprintf("expected %d high pulses, got %d", *e.Highs, totals.Highs))
		}
		if e.Product != nil && *e.Product != totals.Product() {
			result.AddError(fmt.Sprintf("expected product %d, got %d", *e.Product, totals.Product()))
		}
	}

	return nil
}

func (h *Harness) watch(
	ctx context.Context,
	w *Watch,
	defs []ir.Definition,
	reg *registry.Registry,
	runID string,
	result *Result,
) error {
	res, err := h.solve(ctx, w, reg)
	if w.ExpectError != "" {
		switch code := ErrorCode(err); {
		case err == nil:
			result.AddError(fmt.Sprintf("watch: expected error %s, got answer %d", w.ExpectError, res.Answer))
		case code != w.ExpectError:
			result.AddError(fmt.Sprintf("watch: expected error %s, got %s: %v", w.ExpectError, code, err))
		}
		return nil
	}
	if err != nil {
		result.AddError(fmt.Sprintf("watch: %v", err))
		return nil
	}
	result.Watch = &res

	if res.Answer != w.Answer {
		result.AddError(fmt.Sprintf("watch: expected answer %d, got %d", w.Answer, res.Answer))
	}
	if w.Method != "" && string(res.Method) != w.Method {
		result.AddError(fmt.Sprintf("watch: expected method %s, got %s", w.Method, res.Method))
	}

	watched := w.Module
	if watched == "" {
		watched = w.Target
	}
	_, err = h.store.WriteRun(ctx, defs, store.Run{
		ID:      runID,
		Command: store.CommandWatch,
		Presses: res.Triggers,
		Watched: watched,
		Answer:  res.Answer,
		Method:  string(res.Method),
	}, nil, res.Periods)
	if err != nil {
		return fmt.Errorf("failed to log watch: %w", err)
	}

	return nil
}

func (h *Harness) solve(ctx context.Context, w *Watch, reg *registry.Registry) (engine.Result, error) {
	module := w.Module
	if w.Target != "" {
		resolved, err := engine.ResolveWatch(reg, w.Target)
		if err != nil {
			return engine.Result{}, err
		}
		module = resolved
	}

	opts := []engine.PeriodOption{engine.WithDetectorLogger(h.logger)}
	if w.Confirm != nil && !*w.Confirm {
		opts = append(opts, engine.WithoutConfirmation())
	}
	if w.MaxTriggers > 0 {
		opts = append(opts, engine.WithMaxTriggers(w.MaxTriggers))
	}

	sim := engine.NewSimulator(reg, engine.WithLogger(h.logger))
	det, err := engine.NewPeriodDetector(sim, module, opts...)
	if err != nil {
		return engine.Result{}, err
	}
	return det.Solve(ctx)
}

// loadCircuit compiles the scenario's circuit, checks its names and
// builds the registry.
func loadCircuit(s *Scenario) ([]ir.Definition, *registry.Registry, error) {
	var (
		defs []ir.Definition
		err  error
	)
	if s.CircuitFile != "" {
		defs, err = compiler.LoadFile(s.circuitPath())
	} else {
		defs, err = compiler.ParseString(s.Circuit)
	}
	if err != nil {
		return nil, nil, err
	}

	if verrs := compiler.Validate(defs); len(verrs) > 0 {
		return nil, nil, verrs[0]
	}

	reg, err := registry.New(defs)
	if err != nil {
		return nil, nil, err
	}
	return defs, reg, nil
}

// ErrorCode returns the code identifying err: a registry or runtime
// error code, a compiler validation code, PARSE_ERROR or COMPILE_ERROR.
// Returns "" for nil and for errors without a code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := registry.CodeOf(err); code != "" {
		return string(code)
	}

	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) {
		return string(rtErr.Code)
	}
	var vErr compiler.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	var pErr *compiler.ParseError
	if errors.As(err, &pErr) {
		return CodeParseError
	}
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		return CodeCompileError
	}
	return ""
}
