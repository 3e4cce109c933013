package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"parcel-dispatch/internal/app"
)

// LoadLinkMappings reads the CSV mapping of internal service-link-id to
// routing-engine way-id the harvester loads once at process start,
// skipping blank rows the way
// original_source/tsp_prob/traffic_proxy.py's load_mappings does.
func LoadLinkMappings(path string) ([]app.LinkMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open service-link csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse service-link csv %s: %w", path, err)
	}

	var mappings []app.LinkMapping
	for i, row := range records {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		if len(row) < 2 {
			continue
		}
		serviceLinkID := strings.TrimSpace(row[0])
		wayID := strings.TrimSpace(row[1])
		if serviceLinkID == "" || wayID == "" {
			continue
		}
		mappings = append(mappings, app.LinkMapping{ServiceLinkID: serviceLinkID, WayID: wayID})
	}
	return mappings, nil
}

func looksLikeHeader(row []string) bool {
	return len(row) >= 2 && strings.EqualFold(row[0], "service_link_id")
}
