package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpeedTableSwapIsAtomicSnapshot(t *testing.T) {
	table := NewSpeedTable()
	require.Equal(t, 0, table.Len())

	table.Swap(map[string]float64{"w1": 42.0})
	kmh, ok := table.Lookup("w1")
	require.True(t, ok)
	require.Equal(t, 42.0, kmh)

	_, ok = table.Lookup("missing")
	require.False(t, ok)

	snapshot := table.Snapshot()
	table.Swap(map[string]float64{"w2": 10.0})

	// The snapshot taken before the swap must be unaffected by it.
	require.Len(t, snapshot, 1)
	require.Equal(t, 1, len(table.Snapshot()))
	_, ok = table.Lookup("w2")
	require.True(t, ok)
}
