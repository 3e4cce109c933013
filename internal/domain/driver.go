package domain

// Driver is a derived entity: drivers are not created by the core, only
// looked up against the static DistrictMap loaded at startup.
type Driver struct {
	ID       uint64
	Name     string
	District string
	Zone     string
	Phase    Phase
}

// zoneByDistrict groups the 25 Seoul districts into coarser zones, used for
// analytics only — dispatch always keys off district, never zone. Grounded
// on original_source/tsp_prob/auth.py's determine_zone_by_district mapping.
var zoneByDistrict = map[string]string{
	"은평구": "강북서부", "서대문구": "강북서부", "마포구": "강북서부",
	"도봉구": "강북동부", "노원구": "강북동부", "강북구": "강북동부", "성북구": "강북동부",
	"종로구": "강북중부", "중구": "강북중부", "용산구": "강북중부",
	"강서구": "강남서부", "양천구": "강남서부", "구로구": "강남서부",
	"영등포구": "강남서부", "동작구": "강남서부", "관악구": "강남서부", "금천구": "강남서부",
	"성동구": "강남동부", "광진구": "강남동부", "동대문구": "강남동부", "중랑구": "강남동부",
	"강동구": "강남동부", "송파구": "강남동부", "강남구": "강남동부", "서초구": "강남동부",
}

// ZoneForDistrict returns the coarser analytics zone for a district, or
// "Unknown" when the district isn't in the table.
func ZoneForDistrict(district string) string {
	if zone, ok := zoneByDistrict[district]; ok {
		return zone
	}
	return "Unknown"
}

// DistrictMap is the process-wide immutable mapping from district name to
// the id of the driver who owns that district, one per phase. Loaded once
// at startup from configuration and never mutated afterward.
type DistrictMap map[string]uint64

// DriverForDistrict returns the owning driver id and whether the district is
// mapped.
func (m DistrictMap) DriverForDistrict(district string) (uint64, bool) {
	id, ok := m[district]
	return id, ok
}

// PhaseConfig bundles the three things that differ between the pickup and
// delivery planners: the Repository query, the window-open time, and the
// district→driver mapping.
type PhaseConfig struct {
	Phase          Phase
	WindowOpenHour int
	Districts      DistrictMap
}
