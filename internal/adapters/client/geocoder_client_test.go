package client

import (
	"testing"

	"parcel-dispatch/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestExtractDistrictFromText(t *testing.T) {
	require.Equal(t, "마포구", extractDistrictFromText("서울특별시 마포구 어딘가로 10"))
	require.Equal(t, "", extractDistrictFromText("district-less string"))
}

func TestOfflineLookupKnownDistrict(t *testing.T) {
	c := &geocoderClient{}
	result, ok := c.offlineLookup("서울특별시 강남구 테헤란로 152")
	require.True(t, ok)
	require.Equal(t, "강남구", result.District)
	require.Equal(t, domain.ConfidenceOffline, result.Confidence)
	require.Equal(t, offlineDistricts["강남구"].Lat, result.Lat)
}

func TestOfflineLookupUnknownDistrict(t *testing.T) {
	c := &geocoderClient{}
	_, ok := c.offlineLookup("주소에 구가 없음")
	require.False(t, ok)
}

func TestParseCoords(t *testing.T) {
	lat, lon, ok := parseCoords("37.5665", "126.9780")
	require.True(t, ok)
	require.InDelta(t, 37.5665, lat, 1e-6)
	require.InDelta(t, 126.9780, lon, 1e-6)

	_, _, ok = parseCoords("not-a-number", "126.9780")
	require.False(t, ok)
}
