package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parcel-dispatch/internal/domain"
)

type optimizerClient struct {
	baseURL string
	client  *http.Client
}

// NewOptimizerClient builds the HTTP client to the LKH solver sidecar at
// serviceURL (LKH_SERVICE_URL). The sidecar owns the actual subprocess exec
// of the LKH binary; this client only talks HTTP to it, mirroring
// original_source/tsp_prob/lkh_app.py's Flask /solve endpoint.
func NewOptimizerClient(serviceURL string) domain.TSPOptimizer {
	return &optimizerClient{
		baseURL: serviceURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type solveRequest struct {
	Matrix       [][]int64 `json:"matrix"`
	Runs         int       `json:"runs"`
	TimeLimit    int       `json:"time_limit"`
	MaxTrials    int       `json:"max_trials"`
	CandidateSet string    `json:"candidate_set"`
}

type solveResponse struct {
	Tour []int  `json:"tour"`
	Cost *int64 `json:"cost,omitempty"`
}

// SolveTour handles the n==0/1/2 special cases without a network call, matching
// original_source/tsp_prob/lkh_app.py's in-process short-circuit; n>=3
// submits to the sidecar with the fixed tuning table, RUNS capped at 5, and
// validates/recomputes the returned tour.
func (c *optimizerClient) SolveTour(ctx context.Context, matrix [][]int64) (domain.TourResponse, error) {
	n := len(matrix)
	switch n {
	case 0:
		return domain.TourResponse{Tour: []int{}, Cost: 0, AlgorithmUsed: domain.AlgorithmLKH}, nil
	case 1:
		return domain.TourResponse{Tour: []int{0}, Cost: 0, AlgorithmUsed: domain.AlgorithmLKH}, nil
	case 2:
		return domain.TourResponse{Tour: []int{0, 1}, Cost: matrix[0][1], AlgorithmUsed: domain.AlgorithmLKH}, nil
	}

	tuning := domain.TuningFor(n)
	runs := tuning.Runs
	if runs > domain.MaxSubmittedRuns {
		runs = domain.MaxSubmittedRuns
	}

	req := solveRequest{
		Matrix:       matrix,
		Runs:         runs,
		TimeLimit:    tuning.TimeLimitSecs,
		MaxTrials:    tuning.MaxTrials,
		CandidateSet: tuning.CandidateSet,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.TourResponse{}, domain.Internalf(err, "marshal solve request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/solve", bytes.NewReader(body))
	if err != nil {
		return domain.TourResponse{}, domain.Internalf(err, "build solve request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.TourResponse{}, domain.NewError(domain.ErrExternalUnavailable, "optimizer unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.TourResponse{}, domain.NewError(domain.ErrExternalUnavailable, fmt.Sprintf("optimizer returned status %d", resp.StatusCode), nil)
	}

	var solved solveResponse
	if err := json.NewDecoder(resp.Body).Decode(&solved); err != nil {
		return domain.TourResponse{}, domain.Internalf(err, "decode solve response")
	}

	tour, err := parseTour(solved.Tour, n)
	if err != nil {
		return domain.TourResponse{}, domain.NewError(domain.ErrInternal, "invalid tour from optimizer", err)
	}

	cost := recomputeCost(matrix, tour)
	// Optimizer stdout cost parsing is best-effort; always recompute from
	// the matrix as authoritative and use the parsed value only when it
	// agrees.
	if solved.Cost != nil && *solved.Cost == cost {
		cost = *solved.Cost
	}

	return domain.TourResponse{Tour: tour, Cost: cost, AlgorithmUsed: domain.AlgorithmLKH}, nil
}

// parseTour converts a 1-based tour (terminated by -1 or EOF) to 0-based
// and validates it is a permutation of [0, n).
func parseTour(raw []int, n int) ([]int, error) {
	tour := make([]int, 0, n)
	for _, v := range raw {
		if v == -1 {
			break
		}
		tour = append(tour, v-1)
	}

	if len(tour) != n {
		return nil, fmt.Errorf("tour length %d does not match n=%d", len(tour), n)
	}
	seen := make([]bool, n)
	for _, idx := range tour {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("tour index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			return nil, fmt.Errorf("tour index %d repeated", idx)
		}
		seen[idx] = true
	}
	return tour, nil
}

func recomputeCost(matrix [][]int64, tour []int) int64 {
	n := len(tour)
	var cost int64
	for i := 0; i < n; i++ {
		from := tour[i]
		to := tour[(i+1)%n]
		cost += matrix[from][to]
	}
	return cost
}
