package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"parcel-dispatch/internal/domain"
)

type speedFeedClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSpeedFeedClient builds the adapter to the public Seoul traffic speed
// feed, keyed with apiKey (SEOUL_API_KEY), queried once per service-link-id
// by the harvester, grounded on
// original_source/tsp_prob/traffic_proxy.py's fetch_traffic_data.
func NewSpeedFeedClient(apiKey string) domain.SpeedFeed {
	return &speedFeedClient{
		baseURL: "http://openapi.seoul.go.kr:8088",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type speedFeedXML struct {
	XMLName xml.Name `xml:"TrafficInfo"`
	Row     struct {
		LinkID  string  `xml:"link_id"`
		PrcsSpd float64 `xml:"prcs_spd"`
	} `xml:"row"`
}

// FetchSpeed queries a single record response for one service-link-id and
// parses the link_id/prcs_spd XML fields.
func (c *speedFeedClient) FetchSpeed(ctx context.Context, serviceLinkID string) (domain.SpeedEntry, error) {
	url := fmt.Sprintf("%s/%s/xml/TrafficInfo/1/1/%s", c.baseURL, c.apiKey, serviceLinkID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.SpeedEntry{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.SpeedEntry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SpeedEntry{}, fmt.Errorf("speed feed returned status %d", resp.StatusCode)
	}

	var parsed speedFeedXML
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.SpeedEntry{}, fmt.Errorf("decode speed feed xml: %w", err)
	}

	return domain.SpeedEntry{WayID: parsed.Row.LinkID, KMH: parsed.Row.PrcsSpd}, nil
}
