package models

import (
	"strings"
	"time"
)

// CommercialState is the allocation lifecycle flag of a lead
type CommercialState string

const (
	StateAvailable CommercialState = "available"
	StateReserved  CommercialState = "reserved"
	StateSold      CommercialState = "sold"
)

// LeadStatus is the operator triage funnel, orthogonal to CommercialState
type LeadStatus string

const (
	StatusNew       LeadStatus = "nuevo"
	StatusContacted LeadStatus = "contactado"
	StatusMeeting   LeadStatus = "cita"
	StatusSold      LeadStatus = "vendido"
	StatusDiscarded LeadStatus = "descartado"
)

// LeadStatuses lists the funnel values in display order
var LeadStatuses = []LeadStatus{StatusNew, StatusContacted, StatusMeeting, StatusSold, StatusDiscarded}

// Valid reports whether s is one of the known funnel values
func (s LeadStatus) Valid() bool {
	for _, status := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
	TierD = "D"

	SegmentAPlus = "A_PLUS"
)

// NormalizeZoneKey returns the canonical lower-case trimmed zone key
func NormalizeZoneKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// PropertyFeatures holds the property half of a LeadInput
type PropertyFeatures struct {
	ZoneKey      string   `json:"zone_key"`
	Municipality string   `json:"municipality"`
	Neighborhood *string  `json:"neighborhood"`
	PostalCode   *string  `json:"postal_code"`
	PropertyType string   `json:"property_type"`
	M2           float64  `json:"m2"`
	Condition    string   `json:"condition"`
	YearBuilt    *int     `json:"year_built"`
	HasElevator  bool     `json:"has_elevator"`
	HasTerrace   bool     `json:"has_terrace"`
	TerraceM2    *float64 `json:"terrace_m2"`
	HasParking   bool     `json:"has_parking"`
	HasViews     bool     `json:"has_views"`
}

// OwnerSignals holds the owner half of a LeadInput
type OwnerSignals struct {
	SaleHorizon   string   `json:"sale_horizon"`
	Motivation    string   `json:"motivation"`
	AlreadyListed string   `json:"already_listed"`
	Exclusivity   string   `json:"exclusivity"`
	ExpectedPrice *float64 `json:"expected_price"`
}

// LeadInput is the scoring request body
type LeadInput struct {
	Property PropertyFeatures `json:"property"`
	Owner    OwnerSignals     `json:"owner"`
}

type PriceEstimate struct {
	BasePerM2      float64        `json:"base_per_m2"`
	BasePrice      float64        `json:"base_price"`
	AdjustedPrice  float64        `json:"adjusted_price"`
	RangeLow       float64        `json:"range_low"`
	RangeHigh      float64        `json:"range_high"`
	DemandLevel    string         `json:"demand_level"`
	AppliedFactors map[string]any `json:"applied_factors,omitempty"`
}

type PricingAlignment struct {
	ExpectedPrice  *float64   `json:"expected_price"`
	EstimatedRange [2]float64 `json:"estimated_range"`
	Delta          *float64   `json:"delta"`
	GapPercent     *float64   `json:"gap_percent"`
	Note           string     `json:"note"`
}

// LeadPricing is the commercial price attached to a scored lead
type LeadPricing struct {
	LeadPriceEUR     float64 `json:"lead_price_eur"`
	Segment          string  `json:"segment"`
	Policy           string  `json:"policy"`
	ConfidenceBucket string  `json:"confidence_bucket,omitempty"`
}

// ScoreResult is the immutable output of the scoring service
type ScoreResult struct {
	Score            int              `json:"iei_score"`
	Tier             string           `json:"tier"`
	Breakdown        map[string]int   `json:"breakdown,omitempty"`
	PriceEstimate    PriceEstimate    `json:"price_estimate"`
	PricingAlignment PricingAlignment `json:"pricing_alignment"`
	Recommendation   string           `json:"recommendation"`
	Pricing          *LeadPricing     `json:"pricing,omitempty"`
}

// LeadContact carries the owner contact, consent and attribution fields
type LeadContact struct {
	OwnerName          string  `json:"owner_name"`
	OwnerEmail         string  `json:"owner_email"`
	OwnerPhone         string  `json:"owner_phone"`
	ConsentContact     bool    `json:"consent_contact"`
	ConsentTextVersion string  `json:"consent_text_version"`
	SourceCampaign     *string `json:"source_campaign"`
	UTMSource          *string `json:"utm_source"`
	UTMMedium          *string `json:"utm_medium"`
	UTMCampaign        *string `json:"utm_campaign"`
	UTMTerm            *string `json:"utm_term"`
	UTMContent         *string `json:"utm_content"`
}

// CreateLeadRequest is the lead-creation body; Score must come from a prior Score call
type CreateLeadRequest struct {
	Lead           LeadContact `json:"lead"`
	Input          LeadInput   `json:"input"`
	Score          ScoreResult `json:"score"`
	CompanyWebsite *string     `json:"company_website"`
}

// CreateLeadResponse covers both the created and the duplicate shape
type CreateLeadResponse struct {
	LeadID         string         `json:"lead_id,omitempty"`
	ExistingLeadID string         `json:"existing_lead_id,omitempty"`
	Duplicate      bool           `json:"duplicate,omitempty"`
	Note           string         `json:"note,omitempty"`
	Status         LeadStatus     `json:"status,omitempty"`
	Result         map[string]any `json:"result,omitempty"`
	Pricing        *LeadPricing   `json:"pricing,omitempty"`
	CreatedAt      *time.Time     `json:"created_at,omitempty"`
}

// ID returns the tracked lead id: the new one, or the matched existing one
func (r CreateLeadResponse) ID() string {
	if r.LeadID != "" {
		return r.LeadID
	}
	return r.ExistingLeadID
}

// LeadItem is one row of the back-office lead collection
type LeadItem struct {
	LeadID             string          `json:"lead_id"`
	CreatedAt          time.Time       `json:"created_at"`
	Status             LeadStatus      `json:"status"`
	Score              *int            `json:"iei_score"`
	Tier               string          `json:"tier"`
	ZoneKey            string          `json:"zone_key"`
	SaleHorizon        string          `json:"sale_horizon"`
	OwnerName          string          `json:"owner_name"`
	OwnerPhone         string          `json:"owner_phone"`
	CommercialState    CommercialState `json:"commercial_state"`
	ReservedUntil      *time.Time      `json:"reserved_until"`
	ReservedToAgencyID *string         `json:"reserved_to_agency_id"`
	SoldAt             *time.Time      `json:"sold_at"`
	LeadPriceEUR       *float64        `json:"lead_price_eur"`
	Segment            *string         `json:"segment"`
	PricingPolicy      *string         `json:"pricing_policy"`
	ConfidenceBucket   *string         `json:"confidence_bucket"`
	IsPremiumZone      bool            `json:"is_premium_zone"`
}

// LeadFilter selects a page of the lead collection
type LeadFilter struct {
	Tier     string     `json:"tier,omitempty"`
	ZoneKey  string     `json:"zone_key,omitempty"`
	Status   LeadStatus `json:"status,omitempty"`
	Page     int        `json:"page,omitempty"`
	PageSize int        `json:"page_size,omitempty"`
}

type LeadList struct {
	Items    []LeadItem `json:"items"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int        `json:"total"`
}

// LeadDetail is the single-lead view with pricing and segment context
type LeadDetail struct {
	LeadItem
	OwnerEmail       string         `json:"owner_email"`
	ConsentContact   bool           `json:"consent_contact"`
	SourceCampaign   *string        `json:"source_campaign"`
	Input            *LeadInput     `json:"input,omitempty"`
	Result           *ScoreResult   `json:"result,omitempty"`
	LeadCard         map[string]any `json:"lead_card,omitempty"`
	SoldToAgencyID   *string        `json:"sold_to_agency_id"`
	SalePriceEUR     *int           `json:"sale_price_eur"`
	ReservationCount int            `json:"reservation_count"`
}

type StatusUpdate struct {
	LeadID    string     `json:"lead_id"`
	Status    LeadStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ReserveRequest struct {
	AgencyID string `json:"agency_id"`
	Hours    int    `json:"hours"`
}

type Reservation struct {
	LeadID        string    `json:"lead_id"`
	AgencyID      string    `json:"agency_id"`
	ReservedUntil time.Time `json:"reserved_until"`
	Status        string    `json:"status"`
}

type ReleaseRequest struct {
	Reason string `json:"reason"`
}

type Release struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

type SellRequest struct {
	AgencyID string  `json:"agency_id"`
	PriceEUR int     `json:"price_eur"`
	Notes    *string `json:"notes,omitempty"`
}

type Sale struct {
	LeadID   string    `json:"lead_id"`
	AgencyID string    `json:"agency_id"`
	SoldAt   time.Time `json:"sold_at"`
	PriceEUR int       `json:"price_eur"`
	Tier     string    `json:"tier"`
}
