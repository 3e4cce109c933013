package domain

import (
	"context"
	"time"
)

// Repository is the typed query surface over the parcels table. Each
// operation is a single statement; guarded updates return
// whether a row was affected, and callers must not treat a zero-row update
// as success.
type Repository interface {
	FindParcel(ctx context.Context, id uint64) (*Parcel, error)
	PendingPickupsForDriver(ctx context.Context, driverID uint64) ([]Parcel, error)
	PendingDeliveriesForDriver(ctx context.Context, driverID uint64) ([]Parcel, error)
	LastCompletedStopLocation(ctx context.Context, driverID uint64, phase Phase) (string, bool, error)

	AssignPickup(ctx context.Context, parcelID, driverID uint64, scheduledDate time.Time) (bool, error)
	AssignDelivery(ctx context.Context, parcelID, driverID uint64) (bool, error)
	CompletePickup(ctx context.Context, parcelID uint64) (bool, error)
	CompleteDelivery(ctx context.Context, parcelID uint64) (bool, error)
	ConvertPickupToDelivery(ctx context.Context, parcelID uint64) (bool, error)

	TodayCompletedPickupsUnclaimedForDelivery(ctx context.Context) ([]Parcel, error)
	TodayUnassignedDeliveries(ctx context.Context) ([]Parcel, error)
	DailyStatusCounts(ctx context.Context) (map[ParcelStatus]int64, error)

	AnyOutstandingPickups(ctx context.Context) (bool, error)
}

// NextDestinationStatus is the status field of a next-destination response.
type NextDestinationStatus string

const (
	StatusWaiting           NextDestinationStatus = "waiting"
	StatusWaitingForOrders  NextDestinationStatus = "waiting_for_orders"
	StatusAtHub             NextDestinationStatus = "at_hub"
	StatusReturnToHub       NextDestinationStatus = "return_to_hub"
	StatusSuccess           NextDestinationStatus = "success"
)

// NextDestinationResponse is what the per-driver planner returns.
type NextDestinationResponse struct {
	Status          NextDestinationStatus `json:"status"`
	StartTime       string                `json:"start_time,omitempty"`
	CurrentTime     string                `json:"current_time,omitempty"`
	NextDestination *NextDestination      `json:"next_destination,omitempty"`
	Route           *RouteResponse        `json:"route,omitempty"`
	AlgorithmUsed   string                `json:"algorithm_used,omitempty"`
	RemainingCount  int                   `json:"remaining_pickups,omitempty"`
	IsLast          bool                  `json:"is_last,omitempty"`
}

type NextDestination struct {
	ParcelID uint64   `json:"parcel_id,omitempty"`
	Location Location `json:"location"`
}

// CompletionResponse is returned by the completion operation.
type CompletionResponse struct {
	ParcelID       uint64 `json:"parcel_id"`
	RemainingCount int    `json:"remaining_count"`
}

// HubArrivalResponse is returned by the hub-arrival operation.
type HubArrivalResponse struct {
	Location    Location `json:"location"`
	LocationName string  `json:"location_name"`
	ArrivedAt   string   `json:"arrived_at"`
}

// IngestResult is returned by the new-announcement ingest operation.
type IngestResult struct {
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	DriverID      uint64     `json:"driver_id,omitempty"`
}

// DispatchService is the phase-parameterized planner and state-machine
// port, implemented once and driven by Phase rather than duplicated per
// phase.
type DispatchService interface {
	IngestPickupAnnouncement(ctx context.Context, parcelID uint64, now time.Time) (IngestResult, error)
	NextDestination(ctx context.Context, driverID uint64, phase Phase, now time.Time) (NextDestinationResponse, error)
	CompletePickup(ctx context.Context, driverID, parcelID uint64) (CompletionResponse, error)
	CompleteDelivery(ctx context.Context, driverID, parcelID uint64) (CompletionResponse, error)
	HubArrived(ctx context.Context, driverID uint64, phase Phase, now time.Time) (HubArrivalResponse, error)
	AllPickupsCompletedSweep(ctx context.Context) (int, error)
	ImportTodaysDeliveries(ctx context.Context) (int, error)
	AssignDeliveries(ctx context.Context) (int, error)
}
