package config

import (
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

func strPtr(s string) *string { return &s }

// DefaultZones seeds the reference backend when no zones file is configured
var DefaultZones = []models.Zone{
	{
		ZoneKey:       "castelldefels",
		Municipality:  "Castelldefels",
		BasePerM2:     3350,
		DemandLevel:   models.DemandHigh,
		ZoneGroup:     strPtr("baix_llobregat"),
		PricingPolicy: strPtr("standard"),
		IsActive:      true,
	},
	{
		ZoneKey:       "gava",
		Municipality:  "Gavà",
		BasePerM2:     3100,
		DemandLevel:   models.DemandMedium,
		ZoneGroup:     strPtr("baix_llobregat"),
		PricingPolicy: strPtr("standard"),
		IsActive:      true,
	},
	{
		ZoneKey:       "sitges",
		Municipality:  "Sitges",
		BasePerM2:     4100,
		DemandLevel:   models.DemandHigh,
		ZoneGroup:     strPtr("garraf"),
		PricingPolicy: strPtr("premium"),
		IsPremium:     true,
		IsActive:      true,
	},
}

// DefaultAgencies seeds the reference backend alongside DefaultZones
var DefaultAgencies = []models.Agency{
	{ID: "agency-castelldefels", Name: "Finques Castelldefels", MunicipalityFocus: strPtr("castelldefels"), IsActive: true},
	{ID: "agency-garraf", Name: "Garraf Homes", MunicipalityFocus: strPtr("sitges"), IsActive: true},
	{ID: "agency-legacy", Name: "Inmobiliaria Antigua", IsActive: false},
}

// GetZoneKeys returns the keys of the given zones
func GetZoneKeys(zones []models.Zone) []string {
	keys := make([]string, len(zones))
	for i, zone := range zones {
		keys[i] = zone.ZoneKey
	}
	return keys
}

// GetZoneByKey returns a zone by its normalized key
func GetZoneByKey(zones []models.Zone, key string) *models.Zone {
	key = models.NormalizeZoneKey(key)
	for _, zone := range zones {
		if zone.ZoneKey == key {
			return &zone
		}
	}
	return nil
}
