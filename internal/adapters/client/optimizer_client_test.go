package client

import (
	"context"
	"testing"

	"parcel-dispatch/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestSolveTourSmallNShortCircuits(t *testing.T) {
	c := &optimizerClient{baseURL: "http://unused.invalid"}

	resp, err := c.SolveTour(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []int{}, resp.Tour)

	resp, err = c.SolveTour(context.Background(), [][]int64{{0}})
	require.NoError(t, err)
	require.Equal(t, []int{0}, resp.Tour)

	matrix := [][]int64{{0, 7}, {7, 0}}
	resp, err = c.SolveTour(context.Background(), matrix)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, resp.Tour)
	require.Equal(t, int64(7), resp.Cost)
}

func TestParseTourValidatesPermutation(t *testing.T) {
	tour, err := parseTour([]int{1, 3, 2, -1}, 3)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 1}, tour)

	_, err = parseTour([]int{1, 2}, 3)
	require.Error(t, err, "short tour must be rejected")

	_, err = parseTour([]int{1, 1, 2}, 3)
	require.Error(t, err, "repeated index must be rejected")

	_, err = parseTour([]int{1, 5, 2}, 3)
	require.Error(t, err, "out-of-range index must be rejected")
}

func TestRecomputeCost(t *testing.T) {
	matrix := [][]int64{
		{0, 10, 20},
		{10, 0, 15},
		{20, 15, 0},
	}
	cost := recomputeCost(matrix, []int{0, 1, 2})
	require.Equal(t, int64(10+15+20), cost)
}

func TestMaxSubmittedRunsCapsTuning(t *testing.T) {
	tuning := domain.TuningFor(100)
	require.Greater(t, tuning.Runs, domain.MaxSubmittedRuns)
}
