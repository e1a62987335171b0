package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
	"github.com/roach88/pulsenet/internal/testutil"
)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	reg := testutil.MustRegistry(t, testutil.ClassicCounter)

	log := NewRunLog(0)
	sim := engine.NewSimulator(reg, engine.WithObserver(log))
	totals, err := sim.Run(ctx, 3)
	require.NoError(t, err)

	gen := testutil.NewFixedRunIDGenerator("run-0001")
	written, err := s.WriteRun(ctx, reg.Definitions(), Run{
		ID:      gen.Generate(),
		Command: CommandRun,
		Presses: 3,
		Lows:    totals.Lows,
		Highs:   totals.Highs,
	}, log.Triggers(), nil)
	require.NoError(t, err)
	assert.Equal(t, reg.Hash(), written.CircuitHash)
	assert.Equal(t, ir.EngineVersion, written.EngineVersion)

	got, err := s.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, written, got)
	assert.Equal(t, int64(24), got.Lows)
	assert.Equal(t, int64(12), got.Highs)

	triggers, err := s.ReadTriggers(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, log.Triggers(), triggers)
	require.Len(t, triggers, 3)
	assert.Equal(t, int64(1), triggers[0].Index)

	periods, err := s.ReadPeriods(ctx, "run-0001")
	require.NoError(t, err)
	assert.Empty(t, periods)

	defs, err := s.ReadCircuit(ctx, got.CircuitHash)
	require.NoError(t, err)
	assert.Equal(t, reg.Definitions(), defs)
}

func TestRunLog_Limit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	reg := testutil.MustRegistry(t, testutil.ClassicCounter)

	log := NewRunLog(2)
	sim := engine.NewSimulator(reg, engine.WithObserver(log))
	totals, err := sim.Run(ctx, 5)
	require.NoError(t, err)

	require.Len(t, log.Triggers(), 2)
	assert.Equal(t, int64(2), log.Triggers()[1].Index)

	_, err = s.WriteRun(ctx, reg.Definitions(), Run{
		ID:      "capped",
		Command: CommandRun,
		Presses: 5,
		Lows:    totals.Lows,
		Highs:   totals.Highs,
	}, log.Triggers(), nil)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, "capped")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Presses, "totals cover every press")
	assert.Equal(t, totals.Lows, got.Lows)

	triggers, err := s.ReadTriggers(ctx, "capped")
	require.NoError(t, err)
	assert.Len(t, triggers, 2)
}

func TestWriteRun_Watch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	reg := testutil.MustRegistry(t, testutil.PeriodHub)

	sim := engine.NewSimulator(reg)
	d, err := engine.NewPeriodDetector(sim, "hub")
	require.NoError(t, err)
	res, err := d.Solve(ctx)
	require.NoError(t, err)

	_, err = s.WriteRun(ctx, reg.Definitions(), Run{
		ID:      "watch-1",
		Command: CommandWatch,
		Presses: res.Triggers,
		Watched: "hub",
		Answer:  res.Answer,
		Method:  string(res.Method),
	}, nil, res.Periods)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, "watch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Answer)
	assert.Equal(t, "lcm", got.Method)

	periods, err := s.ReadPeriods(ctx, "watch-1")
	require.NoError(t, err)
	assert.Equal(t, []engine.Period{
		{Module: "finv", Period: 4, Confirmed: true},
		{Module: "pinv", Period: 5, Confirmed: true},
		{Module: "tinv", Period: 3, Confirmed: true},
	}, periods, "periods are ordered by module name")
}

func TestWriteRun_SharedCircuit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	defs := compiler.MustParseString(testutil.ClassicOutput)

	gen := NewSequenceGenerator("a-run", "b-run")
	for i := 0; i < 2; i++ {
		_, err := s.WriteRun(ctx, defs, Run{ID: gen.Generate(), Command: CommandRun}, nil, nil)
		require.NoError(t, err)
	}

	var circuits int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM circuits").Scan(&circuits))
	assert.Equal(t, 1, circuits)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a-run", runs[0].ID)
	assert.Equal(t, "b-run", runs[1].ID)
	assert.Equal(t, runs[0].CircuitHash, runs[1].CircuitHash)
}

func TestWriteRun_DuplicateIDIsAtomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	defs := compiler.MustParseString(testutil.FlipFlopChain)

	first := []engine.TriggerResult{{Index: 1, Tally: engine.Tally{Lows: 4, Highs: 2}, MaxDepth: 3}}
	_, err := s.WriteRun(ctx, defs, Run{ID: "dup", Command: CommandRun, Presses: 1}, first, nil)
	require.NoError(t, err)

	second := []engine.TriggerResult{{Index: 1}, {Index: 2}}
	_, err = s.WriteRun(ctx, defs, Run{ID: "dup", Command: CommandRun, Presses: 2}, second, nil)
	require.Error(t, err)

	triggers, err := s.ReadTriggers(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, first, triggers, "failed write must not leave partial rows")
}

func TestWriteRun_RejectsUnknownCommand(t *testing.T) {
	s := createTestStore(t)
	defs := compiler.MustParseString(testutil.FlipFlopChain)

	_, err := s.WriteRun(context.Background(), defs, Run{ID: "x", Command: "replay"}, nil, nil)
	assert.Error(t, err)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.ReadCircuit(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestUnmarshalDefinitions_SinkKind(t *testing.T) {
	defs := []ir.Definition{
		{Name: "broadcaster", Kind: ir.KindBroadcaster, Targets: []string{"rx"}},
		{Name: "rx", Kind: ir.KindSink, Targets: []string{}},
	}
	data, err := marshalDefinitions(defs)
	require.NoError(t, err)

	got, err := unmarshalDefinitions(data)
	require.NoError(t, err)
	assert.Equal(t, defs, got)

	_, err = registry.New(got)
	assert.NoError(t, err)
}
