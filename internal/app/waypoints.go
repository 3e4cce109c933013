package app

import "parcel-dispatch/internal/domain"

// decodePolyline6 decodes a routing-engine polyline encoded with precision
// 6 (factor 1e6) into an ordered list of (lat, lon) coordinates. Same
// encoding as Google's polyline algorithm, but Valhalla-family routing
// engines use precision 6 rather than the usual precision 5.
func decodePolyline6(encoded string) []domain.Location {
	var coords []domain.Location
	index, lat, lon := 0, 0, 0

	for index < len(encoded) {
		lat += decodeVarint(encoded, &index)
		lon += decodeVarint(encoded, &index)
		coords = append(coords, domain.Location{
			Lat: float64(lat) / 1e6,
			Lon: float64(lon) / 1e6,
		})
	}
	return coords
}

func decodeVarint(encoded string, index *int) int {
	var result, shift int
	for {
		b := int(encoded[*index]) - 63
		*index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1)
	}
	return result >> 1
}

// extractWaypoints decodes each leg's polyline,
// then for each maneuver look up the coordinate at its begin_shape_index
// (or (0,0) when out of range), pair it with the first street name or a
// synthetic label and the instruction string. Coordinates and waypoints are
// attached as sibling fields of the trip, not nested inside it.
func extractWaypoints(route domain.RouteResponse) domain.RouteResponse {
	var allCoords []domain.Location
	var waypoints []domain.Waypoint

	for _, leg := range route.Trip.Legs {
		coords := decodePolyline6(leg.Shape)
		allCoords = append(allCoords, coords...)

		for i, m := range leg.Maneuvers {
			var loc domain.Location
			if m.BeginShapeIndex >= 0 && m.BeginShapeIndex < len(coords) {
				loc = coords[m.BeginShapeIndex]
			}
			streetName := syntheticStreetLabel(i)
			if len(m.StreetNames) > 0 {
				streetName = m.StreetNames[0]
			}
			waypoints = append(waypoints, domain.Waypoint{
				Location:    loc,
				StreetName:  streetName,
				Instruction: m.Instruction,
			})
		}
	}

	route.Shape = allCoords
	route.Waypoints = waypoints
	return route
}

func syntheticStreetLabel(maneuverIndex int) string {
	if maneuverIndex == 0 {
		return "출발지"
	}
	return "경유지"
}
