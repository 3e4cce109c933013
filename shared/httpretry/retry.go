// Package httpretry factors the retry-with-backoff loop that
// original_source/tsp_prob/get_valhalla_matrix.py and get_valhalla_route.py
// each hand-rolled identically into one shared helper.
package httpretry

import (
	"context"
	"time"
)

// Do calls fn up to attempts times, sleeping backoff between attempts, and
// returns the first success. If every attempt fails, the last error is
// returned. A context cancellation aborts immediately.
func Do[T any](ctx context.Context, attempts int, backoff time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return zero, lastErr
}
