package stubapi

import (
	"math"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

const (
	PremiumPolicy  = "baix_llobregat_premium"
	StandardPolicy = "standard_mvp_policy"

	defaultConfidence = "medium"
)

var confidenceMultipliers = map[string]any{"high": 1.2, "medium": 1.0, "low": 0.8, "unreliable": 0.0}

// PremiumPricing and StandardPricing are used for zones without their own pricing_json
var (
	PremiumPricing  = map[string]any{"A": 90.0, "B": 55.0, "C": 25.0, "D": 0.0, "A_PLUS": 150.0, "confidence": confidenceMultipliers}
	StandardPricing = map[string]any{"A": 45.0, "B": 30.0, "C": 15.0, "D": 0.0, "A_PLUS": 70.0, "confidence": confidenceMultipliers}
)

// resolvePolicy picks the zone's own pricing parameters, falling back to the
// premium or standard table
func resolvePolicy(zone models.Zone) (string, map[string]any) {
	if len(zone.PricingJSON) > 0 {
		name := PremiumPolicy
		if zone.PricingPolicy != nil && *zone.PricingPolicy != "" {
			name = *zone.PricingPolicy
		}
		return name, zone.PricingJSON
	}
	if zone.IsPremium {
		return PremiumPolicy, PremiumPricing
	}
	return StandardPolicy, StandardPricing
}

// PriceLead computes the commercial price of a scored lead in zone
func PriceLead(zone models.Zone, input models.LeadInput, result *models.ScoreResult) *models.LeadPricing {
	policy, params := resolvePolicy(zone)

	segment := result.Tier
	if isAPlus(input, result) {
		segment = models.SegmentAPlus
	}

	multiplier := 1.0
	if conf, ok := params["confidence"].(map[string]any); ok {
		multiplier = asFloat(conf[defaultConfidence], 1.0)
	}

	price := asFloat(params[segment], asFloat(params[result.Tier], 0))
	if multiplier <= 0 || result.Tier == models.TierD {
		price = 0
	} else {
		price = math.Round(price*multiplier*100) / 100
	}

	return &models.LeadPricing{
		LeadPriceEUR:     price,
		Segment:          segment,
		Policy:           policy,
		ConfidenceBucket: defaultConfidence,
	}
}

func isAPlus(input models.LeadInput, result *models.ScoreResult) bool {
	gap := result.PricingAlignment.GapPercent
	return result.Tier == models.TierA &&
		input.Owner.SaleHorizon == "<3m" &&
		input.Owner.AlreadyListed == "no" &&
		result.PriceEstimate.DemandLevel == models.DemandHigh &&
		gap != nil && *gap <= 5
}

func asFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}
