package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTuningFor(t *testing.T) {
	for _, tc := range []struct {
		n            int
		wantRuns     int
		wantCandidate string
	}{
		{3, 3, "default"},
		{5, 3, "default"},
		{8, 5, "default"},
		{15, 8, "POPMUSIC s=8"},
		{40, 10, "POPMUSIC s=10"},
		{100, 12, "POPMUSIC + subgradient"},
	} {
		tuning := TuningFor(tc.n)
		require.Equal(t, tc.wantRuns, tuning.Runs)
		require.Equal(t, tc.wantCandidate, tuning.CandidateSet)
	}
}
