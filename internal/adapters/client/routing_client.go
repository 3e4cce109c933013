// Package client holds the HTTP adapters to the system's external
// collaborators (Routing Engine, Geocoder, TSP Optimizer, Speed Feed), each
// following the struct{baseURL, *http.Client} idiom used throughout this
// codebase's other HTTP clients, constructed with their connection details
// injected by the composition root rather than reading the environment
// themselves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parcel-dispatch/internal/domain"
)

type routingClient struct {
	baseURL string
	client  *http.Client
}

// NewRoutingClient builds the raw client to the third-party Routing Engine
// at host:port (VALHALLA_HOST/VALHALLA_PORT), with no traffic rewriting of
// its own — the TrafficService wraps this to apply rewrite.
func NewRoutingClient(host, port string) domain.RoutingEngine {
	return &routingClient{
		baseURL: fmt.Sprintf("http://%s:%s", host, port),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *routingClient) Route(ctx context.Context, locations []domain.Location, useLiveTraffic bool) (domain.RouteResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	locs := make([]map[string]float64, len(locations))
	for i, l := range locations {
		locs[i] = map[string]float64{"lat": l.Lat, "lon": l.Lon}
	}

	payload := map[string]any{
		"locations": locs,
		"costing":   "auto",
		"directions_options": map[string]any{
			"units":              "kilometers",
			"language":           "ko-KR",
			"narrative":          true,
			"banner_instructions": true,
		},
		"costing_options": map[string]any{
			"auto": map[string]any{"use_live_traffic": useLiveTraffic},
		},
		"directions_type": "maneuvers",
		"shape_match":     "edge_walk",
		"filters": map[string]any{
			"attributes": []string{"edge.way_id", "edge.names", "edge.length"},
			"action":     "include",
		},
	}

	var resp domain.RouteResponse
	if err := c.post(ctx, "/route", payload, &resp); err != nil {
		return domain.RouteResponse{}, domain.NewError(domain.ErrExternalUnavailable, "routing engine /route failed", err)
	}
	return resp, nil
}

func (c *routingClient) Matrix(ctx context.Context, locations []domain.Location) (domain.MatrixResponse, error) {
	locs := make([]map[string]float64, len(locations))
	for i, l := range locations {
		locs[i] = map[string]float64{"lat": l.Lat, "lon": l.Lon}
	}

	payload := map[string]any{
		"sources":  locs,
		"targets":  locs,
		"costing":  "auto",
	}

	var resp domain.MatrixResponse
	if err := c.post(ctx, "/matrix", payload, &resp); err != nil {
		return domain.MatrixResponse{}, domain.NewError(domain.ErrExternalUnavailable, "routing engine /matrix failed", err)
	}
	return resp, nil
}

func (c *routingClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("routing engine %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
