package commercial

import (
	"math"
	"strconv"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

// ReleaseReason is sent with operator-initiated releases
const ReleaseReason = "admin_manual"

// ReserveParams is a validated reservation request
type ReserveParams struct {
	agencyID string
	hours    int
}

func (p ReserveParams) AgencyID() string { return p.agencyID }
func (p ReserveParams) Hours() int       { return p.hours }

// SellParams is a validated sale request
type SellParams struct {
	agencyID string
	priceEUR int
}

func (p SellParams) AgencyID() string { return p.agencyID }
func (p SellParams) PriceEUR() int    { return p.priceEUR }

// NewReserveParams validates operator input; blank hours take defaultHours
func NewReserveParams(agencyID, hours string, defaultHours int) (ReserveParams, error) {
	agency, err := parseAgency(agencyID)
	if err != nil {
		return ReserveParams{}, err
	}

	h := defaultHours
	if raw := strings.TrimSpace(hours); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v != math.Trunc(v) {
			return ReserveParams{}, apperr.Validation("hours", "Horas de reserva inválidas")
		}
		h = int(v)
	}
	if h <= 0 {
		return ReserveParams{}, apperr.Validation("hours", "Horas de reserva inválidas")
	}
	return ReserveParams{agencyID: agency, hours: h}, nil
}

// NewSellParams validates operator input; the price is rounded to whole euros
func NewSellParams(agencyID, price string) (SellParams, error) {
	agency, err := parseAgency(agencyID)
	if err != nil {
		return SellParams{}, err
	}
	p, err := ParsePrice(price)
	if err != nil {
		return SellParams{}, err
	}
	return SellParams{agencyID: agency, priceEUR: p}, nil
}

// ParsePrice accepts a finite number above zero and rounds it half away from zero
func ParsePrice(raw string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, apperr.Validation("price_eur", "Precio inválido")
	}
	rounded := math.Round(v)
	if rounded < 1 || rounded > math.MaxInt32 {
		return 0, apperr.Validation("price_eur", "Precio inválido")
	}
	return int(rounded), nil
}

// ParseStatus validates a funnel status value
func ParseStatus(raw string) (models.LeadStatus, error) {
	status := models.LeadStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", apperr.Validationf("status", "Estado desconocido: %s", raw)
	}
	return status, nil
}

func parseAgency(raw string) (string, error) {
	agency := strings.TrimSpace(raw)
	if agency == "" {
		return "", apperr.Validation("agency_id", "Selecciona una agencia")
	}
	return agency, nil
}
