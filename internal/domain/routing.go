package domain

import "context"

// Maneuver is one directed segment of a routing-engine response: it has a
// length, a time, a street name, and a begin-index into the leg's encoded
// polyline.
type Maneuver struct {
	Type            int      `json:"type"`
	Instruction     string   `json:"instruction"`
	StreetNames     []string `json:"street_names,omitempty"`
	Time            float64  `json:"time"`
	Length          float64  `json:"length"`
	BeginShapeIndex int      `json:"begin_shape_index"`

	// Traffic-rewrite annotations, set only when the Traffic Proxy accepts
	// a recomputed time.
	OriginalTime  float64 `json:"original_time,omitempty"`
	AppliedSpeedKMH float64 `json:"applied_speed_kmh,omitempty"`
}

type LegSummary struct {
	Time   float64 `json:"time"`
	Length float64 `json:"length"`
}

type Leg struct {
	Maneuvers []Maneuver `json:"maneuvers"`
	Shape     string     `json:"shape"`
	Summary   LegSummary `json:"summary"`
}

type TripSummary struct {
	Time            float64 `json:"time"`
	Length          float64 `json:"length"`
	HasTraffic      bool    `json:"has_traffic,omitempty"`
	AppliedSegments int     `json:"applied_segments,omitempty"`
	TotalSegments   int     `json:"total_segments,omitempty"`
}

type Trip struct {
	Legs    []Leg       `json:"legs"`
	Summary TripSummary `json:"summary"`
}

// RouteResponse is the routing-engine's turn-by-turn response, enriched
// in-place by the Traffic Proxy and, at the planner boundary, by waypoint
// extraction.
type RouteResponse struct {
	Trip      Trip       `json:"trip"`
	Waypoints []Waypoint `json:"waypoints,omitempty"`
	Shape     []Location `json:"coordinates,omitempty"`
}

// Waypoint is one decoded stop along a route, paired with the maneuver that
// produced it.
type Waypoint struct {
	Location    Location `json:"location"`
	StreetName  string   `json:"street_name"`
	Instruction string   `json:"instruction"`
}

// MatrixCell is one source→target entry of a many-to-many matrix response.
type MatrixCell struct {
	Time     float64 `json:"time"`
	Distance float64 `json:"distance"`
}

// MatrixResponse is the routing-engine's many-to-many response, rewritten
// in-place by the Traffic Proxy.
type MatrixResponse struct {
	SourcesToTargets [][]MatrixCell `json:"sources_to_targets"`
}

// RoutingEngine is the port to the external third-party routing engine,
// fronted by the Traffic Proxy before any caller sees a response.
type RoutingEngine interface {
	Route(ctx context.Context, locations []Location, useLiveTraffic bool) (RouteResponse, error)
	Matrix(ctx context.Context, locations []Location) (MatrixResponse, error)
}
