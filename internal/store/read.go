package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

const runColumns = `id, circuit_hash, command, presses, lows, highs, watched, answer, method, engine_version`

// ReadRun returns the run with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every logged run ordered by ID. UUIDv7 IDs make this
// creation order.
//
// Returns an empty slice (not nil) if nothing has been logged.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTriggers returns the trigger tallies of a run in trigger order.
func (s *Store) ReadTriggers(ctx context.Context, runID string) ([]engine.TriggerResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trigger_index, lows, highs, max_depth
		FROM triggers
		WHERE run_id = ?
		ORDER BY trigger_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query triggers: %w", err)
	}
	defer rows.Close()

	triggers := []engine.TriggerResult{}
	for rows.Next() {
		var tr engine.TriggerResult
		if err := rows.Scan(&tr.Index, &tr.Lows, &tr.Highs, &tr.MaxDepth); err != nil {
			return nil, fmt.Errorf("scan trigger: %w", err)
		}
		triggers = append(triggers, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triggers: %w", err)
	}
	return triggers, nil
}

// ReadPeriods returns the periods recorded by a watch, ordered by module.
func (s *Store) ReadPeriods(ctx context.Context, runID string) ([]engine.Period, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, period, confirmed
		FROM periods
		WHERE run_id = ?
		ORDER BY module COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	periods := []engine.Period{}
	for rows.Next() {
		var p engine.Period
		if err := rows.Scan(&p.Module, &p.Period, &p.Confirmed); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return periods, nil
}

// ReadCircuit returns the definitions logged under a circuit hash, in
// declaration order.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCircuit(ctx context.Context, hash string) ([]ir.Definition, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT definitions FROM circuits WHERE hash = ?`, hash).Scan(&data)
	if err != nil {
		return nil, err
	}
	return unmarshalDefinitions(data)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row. sql.ErrNoRows is returned unwrapped.
func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID,
		&r.CircuitHash,
		&r.Command,
		&r.Presses,
		&r.Lows,
		&r.Highs,
		&r.Watched,
		&r.Answer,
		&r.Method,
		&r.EngineVersion,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
