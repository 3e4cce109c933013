package domain

import "sync"

// HubStatus is a process-wide per-driver boolean: has this driver reported
// hub-arrival in the current session? Access is serialized with a mutex
// protecting the whole map, hold time O(1).
type HubStatus struct {
	mu      sync.Mutex
	arrived map[uint64]bool
}

func NewHubStatus() *HubStatus {
	return &HubStatus{arrived: make(map[uint64]bool)}
}

func (h *HubStatus) IsAtHub(driverID uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.arrived[driverID]
}

func (h *HubStatus) SetAtHub(driverID uint64, at bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if at {
		h.arrived[driverID] = true
		return
	}
	delete(h.arrived, driverID)
}

// ClearOnNewStop clears the hub flag the moment a driver receives a new
// stop — the automatic transition requires.
func (h *HubStatus) ClearOnNewStop(driverID uint64) {
	h.SetAtHub(driverID, false)
}
