package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

// ZoneSeed is the on-disk zone configuration
type ZoneSeed struct {
	Zones    []models.Zone   `json:"zones"`
	Agencies []models.Agency `json:"agencies"`
}

// LoadZoneSeed reads zones and agencies from a JSON file.
// An empty path returns the built-in defaults.
func LoadZoneSeed(path string) (*ZoneSeed, error) {
	if path == "" {
		zones := make([]models.Zone, len(DefaultZones))
		copy(zones, DefaultZones)
		agencies := make([]models.Agency, len(DefaultAgencies))
		copy(agencies, DefaultAgencies)
		return &ZoneSeed{Zones: zones, Agencies: agencies}, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %v", err)
	}

	var seed ZoneSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %v", err)
	}

	for i := range seed.Zones {
		seed.Zones[i].ZoneKey = models.NormalizeZoneKey(seed.Zones[i].ZoneKey)
		if seed.Zones[i].ZoneKey == "" {
			return nil, fmt.Errorf("zone %d has an empty zone_key", i)
		}
	}
	return &seed, nil
}

// SaveZoneSeed writes the seed back to path
func SaveZoneSeed(path string, seed *ZoneSeed) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := json.MarshalIndent(seed, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal zones: %v", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write zones file: %v", err)
	}
	return nil
}
