package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parcel-dispatch/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// districtSuffix is the single Korean district-name suffix the offline
// fallback table and the whitespace-token scan both key off.
const districtSuffix = "구"

// offlineDistricts is the adapter's built-in table of the 25 Seoul
// districts' representative coordinates, grounded on
// original_source/tsp_prob/main_service.py's get_default_coordinates and
// traffic_proxy.py's get_default_coordinates_by_district tables.
var offlineDistricts = map[string]domain.Location{
	"종로구":  {Lat: 37.5735, Lon: 126.9790},
	"중구":   {Lat: 37.5641, Lon: 126.9979},
	"용산구":  {Lat: 37.5326, Lon: 126.9906},
	"성동구":  {Lat: 37.5634, Lon: 127.0369},
	"광진구":  {Lat: 37.5385, Lon: 127.0823},
	"동대문구": {Lat: 37.5744, Lon: 127.0398},
	"중랑구":  {Lat: 37.6063, Lon: 127.0925},
	"성북구":  {Lat: 37.5894, Lon: 127.0167},
	"강북구":  {Lat: 37.6396, Lon: 127.0257},
	"도봉구":  {Lat: 37.6688, Lon: 127.0471},
	"노원구":  {Lat: 37.6542, Lon: 127.0568},
	"은평구":  {Lat: 37.6027, Lon: 126.9291},
	"서대문구": {Lat: 37.5791, Lon: 126.9368},
	"마포구":  {Lat: 37.5663, Lon: 126.9019},
	"양천구":  {Lat: 37.5170, Lon: 126.8664},
	"강서구":  {Lat: 37.5509, Lon: 126.8495},
	"구로구":  {Lat: 37.4954, Lon: 126.8874},
	"금천구":  {Lat: 37.4600, Lon: 126.9000},
	"영등포구": {Lat: 37.5264, Lon: 126.8963},
	"동작구":  {Lat: 37.5124, Lon: 126.9393},
	"관악구":  {Lat: 37.4784, Lon: 126.9516},
	"서초구":  {Lat: 37.4837, Lon: 127.0324},
	"강남구":  {Lat: 37.5172, Lon: 127.0473},
	"송파구":  {Lat: 37.5145, Lon: 127.1059},
	"강동구":  {Lat: 37.5301, Lon: 127.1238},
}

const geocodeCachePrefix = "geocode:"
const geocodeCacheTTL = 10 * time.Minute

type geocoderClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *redis.Client
	log     *logrus.Logger
}

// NewGeocoderClient builds the adapter to the external geocoding provider,
// keyed with apiKey (KAKAO_API_KEY). Successful structured/keyword lookups
// are cached in Redis so repeated "next" polls for the same address don't
// re-hit the provider — cache is optional and never allowed to fail the
// request; a nil or errored cache is treated as a miss.
func NewGeocoderClient(apiKey string, cache *redis.Client, log *logrus.Logger) domain.Geocoder {
	return &geocoderClient{
		baseURL: "https://dapi.kakao.com",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		log:     log,
	}
}

type kakaoAddressDoc struct {
	AddressName string `json:"address_name"`
	Address     struct {
		RegionTwoDepthName string `json:"region_2depth_name"`
	} `json:"address"`
	RoadAddress struct {
		RegionTwoDepthName string `json:"region_2depth_name"`
	} `json:"road_address"`
	X string `json:"x"` // longitude
	Y string `json:"y"` // latitude
}

type kakaoAddressResponse struct {
	Documents []kakaoAddressDoc `json:"documents"`
}

type kakaoKeywordDoc struct {
	PlaceName string `json:"place_name"`
	X         string `json:"x"`
	Y         string `json:"y"`
	AddressName string `json:"address_name"`
}

type kakaoKeywordResponse struct {
	Documents []kakaoKeywordDoc `json:"documents"`
}

// Geocode implements the four-step fallback chain. It never
// returns an error: every step degrades silently to the next, logging
// along the way, with the city-hall coordinate as the ultimate fallback.
func (c *geocoderClient) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	if cached, ok := c.readCache(ctx, address); ok {
		return cached, nil
	}

	if result, ok := c.structuredLookup(ctx, address); ok {
		c.writeCache(ctx, address, result)
		return result, nil
	}

	if result, ok := c.keywordLookup(ctx, address); ok {
		c.writeCache(ctx, address, result)
		return result, nil
	}

	if result, ok := c.offlineLookup(address); ok {
		return result, nil
	}

	return domain.GeocodeResult{
		Lat:        domain.CityHallLocation.Lat,
		Lon:        domain.CityHallLocation.Lon,
		District:   "",
		Confidence: domain.ConfidenceFallback,
	}, nil
}

func (c *geocoderClient) structuredLookup(ctx context.Context, address string) (domain.GeocodeResult, bool) {
	var resp kakaoAddressResponse
	if err := c.get(ctx, "/v2/local/search/address.json", address, &resp); err != nil {
		c.log.WithError(err).Debug("geocoder structured lookup failed")
		return domain.GeocodeResult{}, false
	}
	if len(resp.Documents) == 0 {
		return domain.GeocodeResult{}, false
	}
	doc := resp.Documents[0]
	district := doc.Address.RegionTwoDepthName
	if district == "" {
		district = doc.RoadAddress.RegionTwoDepthName
	}
	if district == "" {
		district = extractDistrictFromText(doc.AddressName)
	}
	lat, lon, ok := parseCoords(doc.Y, doc.X)
	if !ok {
		return domain.GeocodeResult{}, false
	}
	return domain.GeocodeResult{
		Lat: lat, Lon: lon, CanonicalAddr: doc.AddressName,
		District: district, Confidence: domain.ConfidenceStructured,
	}, true
}

func (c *geocoderClient) keywordLookup(ctx context.Context, address string) (domain.GeocodeResult, bool) {
	var resp kakaoKeywordResponse
	if err := c.get(ctx, "/v2/local/search/keyword.json", address, &resp); err != nil {
		c.log.WithError(err).Debug("geocoder keyword lookup failed")
		return domain.GeocodeResult{}, false
	}
	if len(resp.Documents) == 0 {
		return domain.GeocodeResult{}, false
	}
	doc := resp.Documents[0]
	district := extractDistrictFromText(doc.AddressName)
	lat, lon, ok := parseCoords(doc.Y, doc.X)
	if !ok {
		return domain.GeocodeResult{}, false
	}
	return domain.GeocodeResult{
		Lat: lat, Lon: lon, CanonicalAddr: doc.AddressName,
		District: district, Confidence: domain.ConfidenceKeyword,
	}, true
}

// offlineLookup is the third fallback step: scan the address string for
// the first whitespace-delimited token ending with the district suffix.
func (c *geocoderClient) offlineLookup(address string) (domain.GeocodeResult, bool) {
	district := extractDistrictFromText(address)
	if district == "" {
		return domain.GeocodeResult{}, false
	}
	loc, ok := offlineDistricts[district]
	if !ok {
		return domain.GeocodeResult{}, false
	}
	return domain.GeocodeResult{
		Lat: loc.Lat, Lon: loc.Lon, District: district, Confidence: domain.ConfidenceOffline,
	}, true
}

// extractDistrictFromText scans for the first whitespace-delimited token
// ending in the district suffix.
func extractDistrictFromText(address string) string {
	for _, token := range strings.Fields(address) {
		if strings.HasSuffix(token, districtSuffix) {
			return token
		}
	}
	return ""
}

func parseCoords(latStr, lonStr string) (float64, float64, bool) {
	var lat, lon float64
	if _, err := fmt.Sscanf(latStr, "%f", &lat); err != nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(lonStr, "%f", &lon); err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func (c *geocoderClient) get(ctx context.Context, path, query string, out any) error {
	values := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *geocoderClient) readCache(ctx context.Context, address string) (domain.GeocodeResult, bool) {
	if c.cache == nil {
		return domain.GeocodeResult{}, false
	}
	raw, err := c.cache.Get(ctx, geocodeCachePrefix+address).Result()
	if err != nil {
		return domain.GeocodeResult{}, false
	}
	var result domain.GeocodeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.GeocodeResult{}, false
	}
	return result, true
}

func (c *geocoderClient) writeCache(ctx context.Context, address string, result domain.GeocodeResult) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, geocodeCachePrefix+address, raw, geocodeCacheTTL).Err(); err != nil {
		c.log.WithError(err).Debug("geocode cache write failed")
	}
}
