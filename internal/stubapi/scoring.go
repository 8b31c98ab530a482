package stubapi

import (
	"math"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

// ScoreFunc scores a lead against its configured zone
type ScoreFunc func(input models.LeadInput, zone models.Zone) (*models.ScoreResult, error)

var typeFactor = map[string]float64{
	"piso":         1.00,
	"atico":        1.08,
	"planta_baja":  0.93,
	"casa_adosada": 1.05,
	"chalet":       1.12,
}

var typePoints = map[string]int{
	"piso":         8,
	"atico":        10,
	"planta_baja":  5,
	"casa_adosada": 10,
	"chalet":       10,
}

var conditionFactor = map[string]float64{
	"reformado":           1.08,
	"buen_estado":         1.00,
	"a_reformar_parcial":  0.92,
	"a_reformar_integral": 0.85,
}

var conditionPoints = map[string]int{
	"reformado":           8,
	"buen_estado":         6,
	"a_reformar_parcial":  3,
	"a_reformar_integral": 2,
}

var demandPoints = map[string]int{
	models.DemandHigh:   12,
	models.DemandMedium: 8,
	models.DemandLow:    4,
}

var horizonPoints = map[string]int{"<3m": 18, "3-6m": 14, "6-12m": 8, "valorando": 0}

var motivationPoints = map[string]int{
	"traslado":    10,
	"herencia":    10,
	"divorcio":    10,
	"finanzas":    10,
	"mejora":      7,
	"compra_otra": 7,
	"inversion":   4,
	"curiosidad":  0,
	"otro":        4,
}

var listedPoints = map[string]int{"no": 4, "si_con_agencia": 2, "si_por_su_cuenta": 3}

var exclusivityPoints = map[string]int{"si": 8, "depende": 4, "no": 0}

const extrasCap = 0.10

// DefaultScore is a compact rendition of the IEI engine: intention (0-40),
// price alignment (0-30) and market (0-30)
func DefaultScore(input models.LeadInput, zone models.Zone) (*models.ScoreResult, error) {
	p, o := input.Property, input.Owner
	if p.M2 <= 0 {
		return nil, apperr.Validation("m2", "m2 must be greater than 0")
	}

	fType, ok := typeFactor[p.PropertyType]
	if !ok {
		return nil, apperr.Validationf("property_type", "unknown property_type %q", p.PropertyType)
	}
	fCond, ok := conditionFactor[p.Condition]
	if !ok {
		return nil, apperr.Validationf("condition", "unknown condition %q", p.Condition)
	}

	intention, err := intentionScore(o)
	if err != nil {
		return nil, err
	}

	estimate := estimatePrice(p, zone, fType, fCond)
	priceScore, alignment := alignmentScore(o.ExpectedPrice, estimate)
	market := clampInt(demandPoints[estimate.DemandLevel]+typePoints[p.PropertyType]+conditionPoints[p.Condition]+extrasPoints(p), 0, 30)

	total := clampInt(intention+priceScore+market, 0, 100)
	tier := tierFromScore(total)

	return &models.ScoreResult{
		Score:            total,
		Tier:             tier,
		Breakdown:        map[string]int{"intencion": intention, "precio": priceScore, "mercado": market},
		PriceEstimate:    estimate,
		PricingAlignment: alignment,
		Recommendation:   recommendation(total, alignment.Note),
	}, nil
}

func intentionScore(o models.OwnerSignals) (int, error) {
	horizon, ok := horizonPoints[o.SaleHorizon]
	if !ok {
		return 0, apperr.Validationf("sale_horizon", "unknown sale_horizon %q", o.SaleHorizon)
	}
	motivation, ok := motivationPoints[o.Motivation]
	if !ok {
		return 0, apperr.Validationf("motivation", "unknown motivation %q", o.Motivation)
	}
	listed, ok := listedPoints[o.AlreadyListed]
	if !ok {
		return 0, apperr.Validationf("already_listed", "unknown already_listed %q", o.AlreadyListed)
	}
	exclusivity, ok := exclusivityPoints[o.Exclusivity]
	if !ok {
		return 0, apperr.Validationf("exclusivity", "unknown exclusivity %q", o.Exclusivity)
	}
	return clampInt(horizon+motivation+listed+exclusivity, 0, 40), nil
}

func estimatePrice(p models.PropertyFeatures, zone models.Zone, fType, fCond float64) models.PriceEstimate {
	demand := zone.DemandLevel
	if _, ok := demandPoints[demand]; !ok {
		demand = models.DemandMedium
	}

	factors := map[string]any{"type": fType, "condition": fCond}
	extras := 0.0
	if p.HasElevator {
		extras += 0.04
		factors["extra_elevator"] = 1.04
	}
	if p.HasParking {
		extras += 0.04
		factors["extra_parking"] = 1.04
	}
	if p.HasViews {
		extras += 0.06
		factors["extra_views"] = 1.06
	}
	if p.HasTerrace {
		if p.TerraceM2 != nil && *p.TerraceM2 > 10 {
			extras += 0.03
			factors["extra_terrace"] = 1.03
		} else {
			extras += 0.02
			factors["extra_terrace"] = 1.02
		}
	}
	extrasFactor := 1 + math.Min(extras, extrasCap)
	factors["extras_factor_capped"] = extrasFactor

	base := p.M2 * zone.BasePerM2
	adjusted := base * fType * fCond * extrasFactor

	return models.PriceEstimate{
		BasePerM2:      zone.BasePerM2,
		BasePrice:      roundPrice(base),
		AdjustedPrice:  roundPrice(adjusted),
		RangeLow:       roundPrice(adjusted * 0.97),
		RangeHigh:      roundPrice(adjusted * 1.05),
		DemandLevel:    demand,
		AppliedFactors: factors,
	}
}

func alignmentScore(expected *float64, est models.PriceEstimate) (int, models.PricingAlignment) {
	alignment := models.PricingAlignment{
		EstimatedRange: [2]float64{est.RangeLow, est.RangeHigh},
	}
	if expected == nil || *expected <= 0 || est.AdjustedPrice <= 0 {
		alignment.ExpectedPrice = expected
		alignment.Note = "Sin expectativa de precio: alineación parcial (menor precisión comercial)."
		return 10, alignment
	}

	delta := (*expected - est.AdjustedPrice) / est.AdjustedPrice
	var score int
	switch {
	case delta < -0.10:
		score = 20
	case delta <= 0.05:
		score = 30
	case delta <= 0.10:
		score = 22
	case delta <= 0.15:
		score = 14
	case delta <= 0.25:
		score = 6
	}

	rounded := roundPrice(*expected)
	gap := math.Round(delta*1000) / 10
	alignment.ExpectedPrice = &rounded
	alignment.Delta = &delta
	alignment.GapPercent = &gap

	switch {
	case delta < -0.10:
		alignment.Note = "Expectativa por debajo del mercado: podría vender rápido, revisar condiciones."
	case score >= 22:
		alignment.Note = "Expectativa alineada con mercado."
	default:
		alignment.Note = "Expectativa por encima del mercado: puede alargar venta."
	}
	return score, alignment
}

func extrasPoints(p models.PropertyFeatures) int {
	pts := 0
	for _, has := range []bool{p.HasElevator, p.HasParking, p.HasTerrace, p.HasViews} {
		if has {
			pts++
		}
	}
	return pts
}

func tierFromScore(score int) string {
	switch {
	case score >= 85:
		return models.TierA
	case score >= 70:
		return models.TierB
	case score >= 55:
		return models.TierC
	default:
		return models.TierD
	}
}

func recommendation(score int, note string) string {
	switch {
	case score >= 85:
		return "Alta ventabilidad. Recomendada estrategia de venta activa y propuesta de exclusiva (plan claro + calendario)."
	case score >= 70:
		return "Ventabilidad buena. " + note + " Recomendado preparar inmueble y definir estrategia de precio para acelerar."
	case score >= 55:
		return "Ventabilidad media. " + note + " Recomendado ajustar expectativas y mejorar presentación antes de salir al mercado."
	default:
		return "Ventabilidad baja. " + note + " Recomendado revisar precio/condición o esperar a un mejor momento de mercado."
	}
}

// roundPrice rounds to the nearest 500 EUR
func roundPrice(x float64) float64 {
	return math.Round(x/500) * 500
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
