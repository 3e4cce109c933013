package domain

import (
	"context"
	"sync/atomic"
)

// SpeedFeed is the port to the external public traffic speed feed. One call
// fetches the single-record speed observation for one service-link id.
type SpeedFeed interface {
	FetchSpeed(ctx context.Context, serviceLinkID string) (SpeedEntry, error)
}

// SpeedEntry is one harvested observation in km/h. The Speed Feed client
// fills WayID with the link_id the feed reports, not a routing-engine
// way-id; the harvester keys the Speed Table by the way-id from the CSV
// mapping instead.
type SpeedEntry struct {
	WayID string
	KMH   float64
}

// SpeedTable is written only by the harvester as an atomic swap of an
// immutable snapshot; readers obtain the current snapshot without locking,
// and never observe a partially-updated table.
type SpeedTable struct {
	snapshot atomic.Pointer[map[string]float64]
}

func NewSpeedTable() *SpeedTable {
	t := &SpeedTable{}
	empty := make(map[string]float64)
	t.snapshot.Store(&empty)
	return t
}

// Swap atomically publishes a freshly-harvested map. Only called after a
// full sweep completes.
func (t *SpeedTable) Swap(next map[string]float64) {
	t.snapshot.Store(&next)
}

// Snapshot returns the current immutable map. Callers must not mutate it.
func (t *SpeedTable) Snapshot() map[string]float64 {
	return *t.snapshot.Load()
}

func (t *SpeedTable) Lookup(wayID string) (float64, bool) {
	m := *t.snapshot.Load()
	kmh, ok := m[wayID]
	return kmh, ok
}

func (t *SpeedTable) Len() int {
	return len(*t.snapshot.Load())
}
