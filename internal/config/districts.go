package config

import (
	"fmt"
	"os"

	"parcel-dispatch/internal/domain"

	"gopkg.in/yaml.v3"
)

// districtMapFile is the on-disk shape of the district→driver configuration
// loaded once at startup and never mutated afterward.
type districtMapFile struct {
	Pickup   map[string]uint64 `yaml:"pickup"`
	Delivery map[string]uint64 `yaml:"delivery"`
}

// LoadDistrictMaps reads the pickup and delivery district→driver maps from
// a YAML file at path.
func LoadDistrictMaps(path string) (pickup, delivery domain.DistrictMap, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read district map %s: %w", path, err)
	}

	var parsed districtMapFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("parse district map %s: %w", path, err)
	}

	return domain.DistrictMap(parsed.Pickup), domain.DistrictMap(parsed.Delivery), nil
}
