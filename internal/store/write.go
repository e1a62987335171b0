package store

import (
	"context"
	"fmt"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// Commands recorded in runs.command.
const (
	CommandRun   = "run"
	CommandWatch = "watch"
)

// Run is one logged CLI invocation.
type Run struct {
	ID            string `json:"id"`
	CircuitHash   string `json:"circuit_hash"`
	Command       string `json:"command"`
	Presses       int64  `json:"presses"`
	Lows          int64  `json:"lows"`
	Highs         int64  `json:"highs"`
	Watched       string `json:"watched,omitempty"`
	Answer        int64  `json:"answer,omitempty"`
	Method        string `json:"method,omitempty"`
	EngineVersion string `json:"engine_version"`
}

// WriteRun records a run with its circuit, trigger tallies and periods.
//
// ATOMIC: the circuit (if new), run, triggers and periods are written in a
// single transaction; either all of them are logged or none.
//
// run.CircuitHash is computed from defs and overwrites whatever was set.
// An empty run.EngineVersion is filled with ir.EngineVersion.
func (s *Store) WriteRun(
	ctx context.Context,
	defs []ir.Definition,
	run Run,
	triggers []engine.TriggerResult,
	periods []engine.Period,
) (Run, error) {
	hash, err := ir.CircuitHash(defs)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	run.CircuitHash = hash
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}

	defsJSON, err := marshalDefinitions(defs)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// The same circuit is logged once no matter how many runs use it.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO circuits (hash, definitions)
		VALUES (?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, defsJSON); err != nil {
		return Run{}, fmt.Errorf("write circuit %s: %w", hash, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, circuit_hash, command, presses, lows, highs, watched, answer, method, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CircuitHash,
		run.Command,
		run.Presses,
		run.Lows,
		run.Highs,
		run.Watched,
		run.Answer,
		run.Method,
		run.EngineVersion,
	); err != nil {
		return Run{}, fmt.Errorf("write run %s: %w", run.ID, err)
	}

	if len(triggers) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO triggers (run_id, trigger_index, lows, highs, max_depth)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return Run{}, fmt.Errorf("prepare trigger insert: %w", err)
		}
		defer stmt.Close()

		for _, tr := range triggers {
			if _, err := stmt.ExecContext(ctx, run.ID, tr.Index, tr.Lows, tr.Highs, tr.MaxDepth); err != nil {
				return Run{}, fmt.Errorf("write trigger %d: %w", tr.Index, err)
			}
		}
	}

	for _, p := range periods {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO periods (run_id, module, period, confirmed)
			VALUES (?, ?, ?, ?)
		`, run.ID, p.Module, p.Period, p.Confirmed); err != nil {
			return Run{}, fmt.Errorf("write period %s: %w", p.Module, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return run, nil
}

// DefaultRunLogTriggers caps how many per-trigger tallies a RunLog keeps.
const DefaultRunLogTriggers = 10000

// RunLog is an engine.Observer that buffers trigger tallies for WriteRun.
type RunLog struct {
	// Limit is the last trigger index buffered; 0 means no limit.
	// Run totals are unaffected since they come from the simulator.
	Limit int64

	triggers []engine.TriggerResult
}

// NewRunLog creates an empty RunLog that keeps triggers 1..limit.
func NewRunLog(limit int64) *RunLog {
	return &RunLog{Limit: limit}
}

// OnPulse implements engine.Observer.
func (l *RunLog) OnPulse(int64, ir.Pulse) {}

// OnTrigger implements engine.Observer.
func (l *RunLog) OnTrigger(r engine.TriggerResult) {
	if l.Limit > 0 && r.Index > l.Limit {
		return
	}
	l.triggers = append(l.triggers, r)
}

// Triggers returns the buffered trigger results in trigger order.
func (l *RunLog) Triggers() []engine.TriggerResult {
	return l.triggers
}
