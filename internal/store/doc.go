// Package store provides the SQLite run log for pulsenet.
//
// The run log is an append-only audit record of CLI invocations:
//   - Circuits: canonical definitions keyed by circuit hash
//   - Runs: one row per run or watch, with its answer
//   - Triggers: per-trigger pulse tallies of a run
//   - Periods: per-predecessor periods found by a watch
//
// The simulator never reads the log back; it is written once at the end
// of a command and read by the trace command and tests.
//
// # Critical Patterns
//
// Logical identity:
//   - Runs are identified by UUIDv7 (time-sortable) from a RunIDGenerator
//   - Triggers are keyed by their 1-based trigger index, never timestamps
//
// Deterministic query results:
//   - Triggers ORDER BY trigger ASC
//   - Periods ORDER BY module COLLATE BINARY ASC
//   - Runs ORDER BY id COLLATE BINARY ASC
//
// Atomic writes:
//   - A run, its triggers and its periods are written in one transaction
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
