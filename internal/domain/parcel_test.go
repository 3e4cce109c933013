package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	for _, tc := range []struct {
		name string
		from ParcelStatus
		to   ParcelStatus
		want bool
	}{
		{"pickup pending to completed", StatusPickupPending, StatusPickupCompleted, true},
		{"pickup completed to delivery pending", StatusPickupCompleted, StatusDeliveryPending, true},
		{"delivery pending to completed", StatusDeliveryPending, StatusDeliveryCompleted, true},
		{"skips a step", StatusPickupPending, StatusDeliveryPending, false},
		{"backward", StatusDeliveryPending, StatusPickupCompleted, false},
		{"same status", StatusPickupPending, StatusPickupPending, false},
		{"unknown from", ParcelStatus("bogus"), StatusPickupCompleted, false},
		{"unknown to", StatusPickupPending, ParcelStatus("bogus"), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestZoneForDistrict(t *testing.T) {
	require.Equal(t, "강북서부", ZoneForDistrict("마포구"))
	require.Equal(t, "강남동부", ZoneForDistrict("강남구"))
	require.Equal(t, "Unknown", ZoneForDistrict("존재하지않는구"))
}

func TestDistrictMapDriverForDistrict(t *testing.T) {
	m := DistrictMap{"마포구": 1}
	driverID, ok := m.DriverForDistrict("마포구")
	require.True(t, ok)
	require.Equal(t, uint64(1), driverID)

	_, ok = m.DriverForDistrict("강남구")
	require.False(t, ok)
}
