package domain

import "context"

// TourRequest is the transient input at the Optimizer Client boundary: a
// square integer travel-time matrix, in seconds.
type TourRequest struct {
	Matrix [][]int64
}

// TourResponse is the transient output: an ordered permutation of node
// indices starting at node 0, plus its total cost.
type TourResponse struct {
	Tour         []int
	Cost         int64
	AlgorithmUsed string
}

const (
	AlgorithmLKH      = "LKH_TSP"
	AlgorithmNearest  = "nearest"
	AlgorithmFallback = "fallback"
)

// SolverTuning is one row of the n-keyed solver-parameter table.
type SolverTuning struct {
	Runs          int
	TimeLimitSecs int
	MaxTrials     int
	CandidateSet  string
}

// TuningFor returns the fixed tuning row for a given problem size n.
func TuningFor(n int) SolverTuning {
	switch {
	case n <= 5:
		return SolverTuning{Runs: 3, TimeLimitSecs: 5, MaxTrials: 500, CandidateSet: "default"}
	case n <= 10:
		return SolverTuning{Runs: 5, TimeLimitSecs: 8, MaxTrials: 1000, CandidateSet: "default"}
	case n <= 20:
		return SolverTuning{Runs: 8, TimeLimitSecs: 12, MaxTrials: 3000, CandidateSet: "POPMUSIC s=8"}
	case n <= 50:
		return SolverTuning{Runs: 10, TimeLimitSecs: 15, MaxTrials: 5000, CandidateSet: "POPMUSIC s=10"}
	default:
		return SolverTuning{Runs: 12, TimeLimitSecs: 20, MaxTrials: 8000, CandidateSet: "POPMUSIC + subgradient"}
	}
}

// MaxSubmittedRuns is the LKH wall-time guard: the actual submitted RUNS
// value is capped here regardless of the computed tuning.
const MaxSubmittedRuns = 5

// TSPOptimizer is the port to the external LKH solver sidecar.
type TSPOptimizer interface {
	SolveTour(ctx context.Context, matrix [][]int64) (TourResponse, error)
}
