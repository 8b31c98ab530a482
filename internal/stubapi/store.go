package stubapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/google/uuid"
)

const (
	DuplicateNote   = "DUPLICATE_PHONE_ZONE_30D"
	defaultPageSize = 50
	maxPageSize     = 200
	maxReserveHours = 720
)

type leadRecord struct {
	detail       models.LeadDetail
	phoneKey     string
	submitLogged bool
}

// Store is the in-memory state of the reference backend
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	zones           []models.Zone
	agencies        []models.Agency
	leads           map[string]*leadRecord
	order           []string
	duplicateWindow time.Duration
}

func NewStore(seed *config.ZoneSeed, duplicateWindow time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		now:             now,
		leads:           make(map[string]*leadRecord),
		duplicateWindow: duplicateWindow,
	}
	for _, zone := range seed.Zones {
		zone.ZoneKey = models.NormalizeZoneKey(zone.ZoneKey)
		if zone.ID == "" {
			zone.ID = "zone-" + zone.ZoneKey
		}
		s.zones = append(s.zones, zone)
	}
	for _, agency := range seed.Agencies {
		if agency.ID == "" {
			agency.ID = uuid.NewString()
		}
		s.agencies = append(s.agencies, agency)
	}
	return s
}

// Zone returns the active zone for key
func (s *Store) Zone(key string) (models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = models.NormalizeZoneKey(key)
	for _, zone := range s.zones {
		if zone.ZoneKey == key && zone.IsActive {
			return zone, nil
		}
	}
	return models.Zone{}, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeZoneNotConfigured,
		fmt.Sprintf("Zona no configurada: %s", key))
}

func (s *Store) Zones() []models.Zone {
	s.mu.Lock()
	defer s.mu.Unlock()

	zones := make([]models.Zone, len(s.zones))
	copy(zones, s.zones)
	return zones
}

func (s *Store) PatchZone(id string, patch models.ZonePatch) (*models.ZonePatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.zones {
		zone := &s.zones[i]
		if zone.ID != id {
			continue
		}
		if patch.BasePerM2 != nil {
			if *patch.BasePerM2 <= 0 {
				return nil, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, "base_per_m2 must be greater than 0")
			}
			zone.BasePerM2 = *patch.BasePerM2
		}
		if patch.DemandLevel != nil {
			level := strings.ToLower(*patch.DemandLevel)
			if _, ok := demandPoints[level]; !ok {
				return nil, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, "demand_level must be alta, media or baja")
			}
			zone.DemandLevel = level
		}
		if patch.ZoneGroup != nil {
			zone.ZoneGroup = patch.ZoneGroup
		}
		if patch.PricingPolicy != nil {
			zone.PricingPolicy = patch.PricingPolicy
		}
		if patch.PricingJSON != nil {
			zone.PricingJSON = *patch.PricingJSON
			if len(zone.PricingJSON) == 0 {
				zone.PricingJSON = nil
			}
		}
		if patch.IsPremium != nil {
			zone.IsPremium = *patch.IsPremium
		}
		if patch.IsActive != nil {
			zone.IsActive = *patch.IsActive
		}
		return &models.ZonePatchResult{
			ZoneKey:     zone.ZoneKey,
			BasePerM2:   zone.BasePerM2,
			DemandLevel: zone.DemandLevel,
			UpdatedAt:   s.now().UTC(),
		}, nil
	}
	return nil, apperr.Domain(http.StatusNotFound, apperr.CodeZoneNotFound, "Zone not found")
}

func (s *Store) Agencies() []models.Agency {
	s.mu.Lock()
	defer s.mu.Unlock()

	agencies := make([]models.Agency, len(s.agencies))
	copy(agencies, s.agencies)
	return agencies
}

func (s *Store) agency(id string) (models.Agency, error) {
	for _, agency := range s.agencies {
		if agency.ID == id {
			if !agency.IsActive {
				return agency, apperr.Domain(http.StatusConflict, apperr.CodeAgencyInactive, "Agency is inactive")
			}
			return agency, nil
		}
	}
	return models.Agency{}, apperr.Domain(http.StatusNotFound, apperr.CodeAgencyNotFound, "Agency not found")
}

func phoneKey(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' {
			return -1
		}
		return r
	}, phone)
}

// CreateLead stores a new lead, or reports the existing one when the same
// phone was seen in the same zone within the duplicate window
func (s *Store) CreateLead(req models.CreateLeadRequest, pricing *models.LeadPricing, zone models.Zone) (*models.CreateLeadResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	key := phoneKey(req.Lead.OwnerPhone)
	if key != "" {
		for i := len(s.order) - 1; i >= 0; i-- {
			rec := s.leads[s.order[i]]
			if rec.phoneKey == key && rec.detail.ZoneKey == zone.ZoneKey && now.Sub(rec.detail.CreatedAt) <= s.duplicateWindow {
				return &models.CreateLeadResponse{
					Duplicate:      true,
					ExistingLeadID: rec.detail.LeadID,
					Note:           DuplicateNote,
				}, false
			}
		}
	}

	id := uuid.NewString()
	score := req.Score
	score.Pricing = pricing
	input := req.Input

	detail := models.LeadDetail{
		LeadItem: models.LeadItem{
			LeadID:          id,
			CreatedAt:       now,
			Status:          models.StatusNew,
			Score:           &score.Score,
			Tier:            score.Tier,
			ZoneKey:         zone.ZoneKey,
			SaleHorizon:     input.Owner.SaleHorizon,
			OwnerName:       req.Lead.OwnerName,
			OwnerPhone:      req.Lead.OwnerPhone,
			CommercialState: models.StateAvailable,
			LeadPriceEUR:    &pricing.LeadPriceEUR,
			Segment:         &pricing.Segment,
			PricingPolicy:   &pricing.Policy,
			IsPremiumZone:   zone.IsPremium,
		},
		OwnerEmail:     req.Lead.OwnerEmail,
		ConsentContact: req.Lead.ConsentContact,
		SourceCampaign: req.Lead.SourceCampaign,
		Input:          &input,
		Result:         &score,
		LeadCard: map[string]any{
			"zona":         zone.Municipality,
			"tipo":         input.Property.PropertyType,
			"m2":           input.Property.M2,
			"horizonte":    input.Owner.SaleHorizon,
			"rango_precio": score.PricingAlignment.EstimatedRange,
			"iei":          score.Score,
			"tier":         score.Tier,
		},
	}
	if pricing.ConfidenceBucket != "" {
		bucket := pricing.ConfidenceBucket
		detail.ConfidenceBucket = &bucket
	}

	s.leads[id] = &leadRecord{detail: detail, phoneKey: key}
	s.order = append(s.order, id)

	return &models.CreateLeadResponse{
		LeadID:    id,
		Status:    models.StatusNew,
		Result:    map[string]any{"iei_score": score.Score, "tier": score.Tier},
		Pricing:   pricing,
		CreatedAt: &now,
	}, true
}

// MarkSubmitted records a submit_lead event for leadID and reports whether one was already recorded
func (s *Store) MarkSubmitted(leadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.leads[leadID]
	if !ok {
		return false
	}
	seen := rec.submitLogged
	rec.submitLogged = true
	return seen
}

// expire lazily returns a lapsed reservation to available
func (s *Store) expire(rec *leadRecord, now time.Time) {
	d := &rec.detail
	if d.CommercialState == models.StateReserved && d.ReservedUntil != nil && now.After(*d.ReservedUntil) {
		d.CommercialState = models.StateAvailable
		d.ReservedUntil = nil
		d.ReservedToAgencyID = nil
	}
}

// ExpireReservations releases every lapsed reservation and returns how many
func (s *Store) ExpireReservations() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	released := 0
	for _, rec := range s.leads {
		if rec.detail.CommercialState != models.StateReserved {
			continue
		}
		s.expire(rec, now)
		if rec.detail.CommercialState == models.StateAvailable {
			released++
		}
	}
	return released
}

func (s *Store) lead(id string) (*leadRecord, error) {
	rec, ok := s.leads[id]
	if !ok {
		return nil, apperr.Domain(http.StatusNotFound, apperr.CodeLeadNotFound, "Lead not found")
	}
	s.expire(rec, s.now().UTC())
	return rec, nil
}

func (s *Store) ListLeads(filter models.LeadFilter) models.LeadList {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	tier := strings.ToUpper(filter.Tier)
	zone := models.NormalizeZoneKey(filter.ZoneKey)

	now := s.now().UTC()
	matched := make([]models.LeadItem, 0)
	for _, id := range s.order {
		rec := s.leads[id]
		s.expire(rec, now)
		item := rec.detail.LeadItem
		if tier != "" && item.Tier != tier {
			continue
		}
		if zone != "" && item.ZoneKey != zone {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		matched = append(matched, item)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	list := models.LeadList{Page: filter.Page, PageSize: filter.PageSize, Total: len(matched), Items: []models.LeadItem{}}
	start := (filter.Page - 1) * filter.PageSize
	if start < len(matched) {
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		list.Items = matched[start:end]
	}
	return list
}

func (s *Store) Lead(id string) (*models.LeadDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lead(id)
	if err != nil {
		return nil, err
	}
	detail := rec.detail
	return &detail, nil
}

func (s *Store) SetStatus(id string, status models.LeadStatus) (*models.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Valid() {
		return nil, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, fmt.Sprintf("Unknown status %q", status))
	}
	rec, err := s.lead(id)
	if err != nil {
		return nil, err
	}
	rec.detail.Status = status
	return &models.StatusUpdate{LeadID: id, Status: status, UpdatedAt: s.now().UTC()}, nil
}

func (s *Store) Reserve(id string, req models.ReserveRequest) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Hours <= 0 || req.Hours > maxReserveHours {
		return nil, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, fmt.Sprintf("hours must be between 1 and %d", maxReserveHours))
	}
	rec, err := s.lead(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.agency(req.AgencyID); err != nil {
		return nil, err
	}

	d := &rec.detail
	switch {
	case d.Tier != models.TierA:
		return nil, apperr.Domain(http.StatusConflict, apperr.CodeReservationTierA, "Only tier A leads can be reserved")
	case d.CommercialState == models.StateSold:
		return nil, apperr.Domain(http.StatusConflict, apperr.CodeSold, "Lead already sold")
	case d.CommercialState == models.StateReserved:
		return nil, apperr.Domain(http.StatusConflict, apperr.CodeReserved, "Lead already reserved")
	}

	until := s.now().UTC().Add(time.Duration(req.Hours) * time.Hour)
	agencyID := req.AgencyID
	d.CommercialState = models.StateReserved
	d.ReservedUntil = &until
	d.ReservedToAgencyID = &agencyID
	d.ReservationCount++

	return &models.Reservation{LeadID: id, AgencyID: agencyID, ReservedUntil: until, Status: string(models.StateReserved)}, nil
}

func (s *Store) Release(id string) (*models.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lead(id)
	if err != nil {
		return nil, err
	}
	d := &rec.detail
	if d.CommercialState != models.StateReserved {
		return nil, apperr.Domain(http.StatusNotFound, apperr.CodeNoActiveReservation, "No active reservation")
	}
	d.CommercialState = models.StateAvailable
	d.ReservedUntil = nil
	d.ReservedToAgencyID = nil
	return &models.Release{LeadID: id, Status: "released"}, nil
}

func (s *Store) Sell(id string, req models.SellRequest) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.PriceEUR <= 0 {
		return nil, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, "price_eur must be greater than 0")
	}
	rec, err := s.lead(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.agency(req.AgencyID); err != nil {
		return nil, err
	}

	d := &rec.detail
	if d.CommercialState == models.StateSold {
		return nil, apperr.Domain(http.StatusConflict, apperr.CodeSold, "Lead already sold")
	}
	if d.CommercialState == models.StateReserved && d.ReservedToAgencyID != nil && *d.ReservedToAgencyID != req.AgencyID {
		return nil, apperr.Domain(http.StatusConflict, apperr.CodeReservedForOther, "Lead reserved for another agency")
	}

	soldAt := s.now().UTC()
	agencyID := req.AgencyID
	price := req.PriceEUR
	d.CommercialState = models.StateSold
	d.Status = models.StatusSold
	d.SoldAt = &soldAt
	d.SoldToAgencyID = &agencyID
	d.SalePriceEUR = &price
	d.ReservedUntil = nil
	d.ReservedToAgencyID = nil

	return &models.Sale{LeadID: id, AgencyID: agencyID, SoldAt: soldAt, PriceEUR: price, Tier: d.Tier}, nil
}

// Sales returns sold leads, newest first
func (s *Store) Sales(tier, zoneKey string) []models.LeadDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	tier = strings.ToUpper(strings.TrimSpace(tier))
	zoneKey = models.NormalizeZoneKey(zoneKey)

	sales := make([]models.LeadDetail, 0)
	for _, id := range s.order {
		d := s.leads[id].detail
		if d.CommercialState != models.StateSold {
			continue
		}
		if (tier != "" && d.Tier != tier) || (zoneKey != "" && d.ZoneKey != zoneKey) {
			continue
		}
		sales = append(sales, d)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].SoldAt.After(*sales[j].SoldAt)
	})
	return sales
}
