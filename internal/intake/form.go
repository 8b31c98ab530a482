package intake

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

// ConsentTextVersion is the consent wording the visitor accepted
const ConsentTextVersion = "v1"

// Submission is a validated intake form
type Submission struct {
	Input          models.LeadInput
	Contact        models.LeadContact
	CompanyWebsite *string
}

// ParseForm validates raw form values into a Submission without any network call
func ParseForm(values url.Values) (*Submission, error) {
	input, err := BuildLeadInput(values)
	if err != nil {
		return nil, err
	}

	return &Submission{
		Input: *input,
		Contact: models.LeadContact{
			OwnerName:          text(values, "owner_name"),
			OwnerEmail:         text(values, "owner_email"),
			OwnerPhone:         text(values, "owner_phone"),
			ConsentContact:     checked(values, "consent_contact"),
			ConsentTextVersion: ConsentTextVersion,
			SourceCampaign:     optionalText(values, "source_campaign"),
			UTMSource:          optionalText(values, "utm_source"),
			UTMMedium:          optionalText(values, "utm_medium"),
			UTMCampaign:        optionalText(values, "utm_campaign"),
			UTMTerm:            optionalText(values, "utm_term"),
			UTMContent:         optionalText(values, "utm_content"),
		},
		CompanyWebsite: optionalText(values, "company_website"),
	}, nil
}

// BuildLeadInput coerces the property and owner fields. m2 must be a number above zero.
func BuildLeadInput(values url.Values) (*models.LeadInput, error) {
	m2, err := number(values, "m2")
	if err != nil {
		return nil, err
	}
	if m2 == nil || *m2 <= 0 {
		return nil, apperr.Validation("m2", "m2 debe ser mayor que 0.")
	}

	yearBuilt, err := integer(values, "year_built")
	if err != nil {
		return nil, err
	}
	terraceM2, err := number(values, "terrace_m2")
	if err != nil {
		return nil, err
	}
	expectedPrice, err := number(values, "expected_price")
	if err != nil {
		return nil, err
	}

	return &models.LeadInput{
		Property: models.PropertyFeatures{
			ZoneKey:      models.NormalizeZoneKey(values.Get("zone_key")),
			Municipality: text(values, "municipality"),
			Neighborhood: optionalText(values, "neighborhood"),
			PostalCode:   optionalText(values, "postal_code"),
			PropertyType: values.Get("property_type"),
			M2:           *m2,
			Condition:    values.Get("condition"),
			YearBuilt:    yearBuilt,
			HasElevator:  checked(values, "has_elevator"),
			HasTerrace:   checked(values, "has_terrace"),
			TerraceM2:    terraceM2,
			HasParking:   checked(values, "has_parking"),
			HasViews:     checked(values, "has_views"),
		},
		Owner: models.OwnerSignals{
			SaleHorizon:   values.Get("sale_horizon"),
			Motivation:    values.Get("motivation"),
			AlreadyListed: values.Get("already_listed"),
			Exclusivity:   values.Get("exclusivity"),
			ExpectedPrice: expectedPrice,
		},
	}, nil
}

func text(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

// optionalText maps blank to nil
func optionalText(values url.Values, key string) *string {
	v := text(values, key)
	if v == "" {
		return nil
	}
	return &v
}

// checked maps a checkbox to its presence; explicit negatives count as unchecked
func checked(values url.Values, key string) bool {
	if !values.Has(key) {
		return false
	}
	switch strings.ToLower(text(values, key)) {
	case "false", "0", "off", "no":
		return false
	}
	return true
}

// number parses an optional finite number; blank is nil
func number(values url.Values, key string) (*float64, error) {
	raw := text(values, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.Validationf(key, "%s debe ser un número.", key)
	}
	return &v, nil
}

func integer(values url.Values, key string) (*int, error) {
	v, err := number(values, key)
	if err != nil || v == nil {
		return nil, err
	}
	n := int(math.Round(*v))
	return &n, nil
}
