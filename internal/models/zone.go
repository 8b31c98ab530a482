package models

import "time"

const (
	DemandHigh   = "alta"
	DemandMedium = "media"
	DemandLow    = "baja"
)

// DemandLevels lists the accepted zone demand values
var DemandLevels = []string{DemandHigh, DemandMedium, DemandLow}

// Zone is a geographic pricing unit read by the scoring service
type Zone struct {
	ID                       string             `json:"id"`
	ZoneKey                  string             `json:"zone_key"`
	Municipality             string             `json:"municipality"`
	BasePerM2                float64            `json:"base_per_m2"`
	DemandLevel              string             `json:"demand_level"`
	TypeFactorOverrides      map[string]float64 `json:"type_factor_overrides,omitempty"`
	ConditionFactorOverrides map[string]float64 `json:"condition_factor_overrides,omitempty"`
	ExtrasAddOverrides       map[string]float64 `json:"extras_add_overrides,omitempty"`
	ExtrasCapOverride        *float64           `json:"extras_cap_override,omitempty"`
	ZoneGroup                *string            `json:"zone_group"`
	PricingPolicy            *string            `json:"pricing_policy"`
	PricingJSON              map[string]any     `json:"pricing_json"`
	IsPremium                bool               `json:"is_premium"`
	IsActive                 bool               `json:"is_active"`
}

// ZonePatch is a partial zone update; nil fields are left untouched.
// A non-nil empty PricingJSON clears the zone's pricing parameters.
type ZonePatch struct {
	BasePerM2     *float64        `json:"base_per_m2,omitempty"`
	DemandLevel   *string         `json:"demand_level,omitempty"`
	ZoneGroup     *string         `json:"zone_group,omitempty"`
	PricingPolicy *string         `json:"pricing_policy,omitempty"`
	PricingJSON   *map[string]any `json:"pricing_json,omitempty"`
	IsPremium     *bool           `json:"is_premium,omitempty"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

// Empty reports whether the patch carries no field
func (p ZonePatch) Empty() bool {
	return p.BasePerM2 == nil && p.DemandLevel == nil && p.ZoneGroup == nil &&
		p.PricingPolicy == nil && p.PricingJSON == nil && p.IsPremium == nil && p.IsActive == nil
}

type ZonePatchResult struct {
	ZoneKey     string    `json:"zone_key"`
	BasePerM2   float64   `json:"base_per_m2"`
	DemandLevel string    `json:"demand_level"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Agency is a reservation/sale target
type Agency struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	MunicipalityFocus *string `json:"municipality_focus"`
	IsActive          bool    `json:"is_active"`
}
