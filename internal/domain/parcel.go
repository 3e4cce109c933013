package domain

import "time"

// ParcelStatus is the canonical status vocabulary used throughout the
// service, stored and served in these spellings. No boundary translates
// legacy PENDING/COMPLETED spellings to or from this enum.
type ParcelStatus string

const (
	StatusPickupPending    ParcelStatus = "PICKUP_PENDING"
	StatusPickupCompleted  ParcelStatus = "PICKUP_COMPLETED"
	StatusDeliveryPending  ParcelStatus = "DELIVERY_PENDING"
	StatusDeliveryCompleted ParcelStatus = "DELIVERY_COMPLETED"
)

// statusOrder gives each status its position in the strictly-forward
// lifecycle, so a transition can be checked with a single comparison.
var statusOrder = map[ParcelStatus]int{
	StatusPickupPending:     0,
	StatusPickupCompleted:   1,
	StatusDeliveryPending:   2,
	StatusDeliveryCompleted: 3,
}

// CanTransition reports whether moving from `from` to `to` respects the
// strictly-forward lifecycle: each call advances exactly one step.
func CanTransition(from, to ParcelStatus) bool {
	fromOrder, ok := statusOrder[from]
	if !ok {
		return false
	}
	toOrder, ok := statusOrder[to]
	if !ok {
		return false
	}
	return toOrder == fromOrder+1
}

// Parcel is the central entity. Identity is a stable numeric id; soft-delete
// is a terminal sideline rather than a lifecycle status.
type Parcel struct {
	ID                   uint64       `json:"id" gorm:"primaryKey"`
	OwnerID              uint64       `json:"ownerId"`
	Size                 string       `json:"size"`
	RecipientAddr        string       `json:"recipientAddr"`
	RecipientName        string       `json:"recipientName"`
	RecipientPhone       string       `json:"recipientPhone"`
	ProductName          string       `json:"productName"`
	Status               ParcelStatus `json:"status"`
	PickupDriverID       *uint64      `json:"pickupDriverId,omitempty"`
	DeliveryDriverID     *uint64      `json:"deliveryDriverId,omitempty"`
	PickupScheduledDate  *time.Time   `json:"pickupScheduledDate,omitempty"`
	PickupCompletedAt    *time.Time   `json:"pickupCompletedAt,omitempty"`
	DeliveryCompletedAt  *time.Time   `json:"deliveryCompletedAt,omitempty"`
	IsNextPickupTarget   bool         `json:"isNextPickupTarget" gorm:"default:false"`
	IsNextDeliveryTarget bool         `json:"isNextDeliveryTarget" gorm:"default:false"`
	CreatedAt            time.Time    `json:"createdAt"`
	IsDeleted            bool         `json:"-" gorm:"default:false"`
}

func (Parcel) TableName() string { return "parcels" }

// Phase distinguishes the two halves of a driver's day. Drivers are
// single-phase.
type Phase string

const (
	PhasePickup   Phase = "pickup"
	PhaseDelivery Phase = "delivery"
)

// Location is a bare coordinate, reused across the Geocoder, the Routing
// Engine client, and the HubStatus hub coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HubLocation is the fixed origin/terminus every driver returns to at the
// end of a phase.
var HubLocation = Location{Lat: 37.5299, Lon: 126.9648}

const HubName = "용산역"
