package app

import (
	"testing"

	"parcel-dispatch/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestDecodePolyline6(t *testing.T) {
	// Encodes (37.5299,126.9648) -> (37.5300,126.9650) -> (37.5310,126.9660)
	// at precision 6.
	const encoded = "wqsqfA_cidqFgEoKo}@o}@"

	got := decodePolyline6(encoded)
	require.Len(t, got, 3)
	require.InDelta(t, 37.5299, got[0].Lat, 1e-4)
	require.InDelta(t, 126.9648, got[0].Lon, 1e-4)
	require.InDelta(t, 37.5310, got[2].Lat, 1e-4)
	require.InDelta(t, 126.9660, got[2].Lon, 1e-4)
}

func TestExtractWaypoints(t *testing.T) {
	const encoded = "wqsqfA_cidqFgEoKo}@o}@"
	route := domain.RouteResponse{
		Trip: domain.Trip{
			Legs: []domain.Leg{
				{
					Shape: encoded,
					Maneuvers: []domain.Maneuver{
						{Instruction: "출발", BeginShapeIndex: 0},
						{Instruction: "우회전", StreetNames: []string{"테헤란로"}, BeginShapeIndex: 1},
						{Instruction: "도착", BeginShapeIndex: 99},
					},
				},
			},
		},
	}

	got := extractWaypoints(route)
	require.Len(t, got.Shape, 3)
	require.Len(t, got.Waypoints, 3)

	require.Equal(t, "출발지", got.Waypoints[0].StreetName)
	require.Equal(t, "테헤란로", got.Waypoints[1].StreetName)
	require.Equal(t, domain.Location{}, got.Waypoints[2].Location, "out-of-range begin_shape_index degrades to the zero location")
}
