package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/testutil"
)

func TestResolveWatch(t *testing.T) {
	reg := testutil.MustRegistry(t, testutil.PeriodHub)

	tests := []struct {
		target string
		want   string
	}{
		{"rx", "hub"},  // sink fed by one conjunction
		{"hub", "hub"}, // several predecessors
		{"tc", "tc"},   // fed by flip-flops
		{"t0", "t0"},   // fed by broadcaster and a conjunction
		{"tinv", "tc"}, // fed by one conjunction
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := ResolveWatch(reg, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWatch_Unknown(t *testing.T) {
	reg := testutil.MustRegistry(t, testutil.PeriodHub)

	_, err := ResolveWatch(reg, "zz")
	require.Error(t, err)
	assert.True(t, IsMissingWatchedModule(err))
}
