package commercial

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/sirupsen/logrus"
)

// Backend is the back-office lead API
type Backend interface {
	ListLeads(ctx context.Context, filter models.LeadFilter) (*models.LeadList, error)
	GetLead(ctx context.Context, id string) (*models.LeadDetail, error)
	PatchLeadStatus(ctx context.Context, id string, status models.LeadStatus) (*models.StatusUpdate, error)
	ReserveLead(ctx context.Context, id string, req models.ReserveRequest) (*models.Reservation, error)
	ReleaseReservation(ctx context.Context, id string, req models.ReleaseRequest) (*models.Release, error)
	SellLead(ctx context.Context, id string, req models.SellRequest) (*models.Sale, error)
	ListAgencies(ctx context.Context) ([]models.Agency, error)
}

// Row is a lead with its action gating
type Row struct {
	models.LeadItem
	Actions Actions `json:"actions"`
	Label   string  `json:"label"`
	Expired bool    `json:"expired"`
}

// View is one freshly fetched page of the lead collection
type View struct {
	Filter   models.LeadFilter `json:"filter"`
	Rows     []Row             `json:"rows"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
	LoadedAt time.Time         `json:"loaded_at"`
}

// Row returns the row for leadID, if present in the view
func (v *View) Row(leadID string) (*Row, bool) {
	if v == nil {
		return nil, false
	}
	for i := range v.Rows {
		if v.Rows[i].LeadID == leadID {
			return &v.Rows[i], true
		}
	}
	return nil, false
}

// Controller loads the lead collection and issues lifecycle transitions.
// Every successful mutation is followed by a full reload; nothing is patched locally.
type Controller struct {
	backend      Backend
	policy       Policy
	defaultHours int
	pageSize     int
	logger       *logrus.Logger
	now          func() time.Time

	mu     sync.Mutex
	filter models.LeadFilter
	view   *View
}

func NewController(backend Backend, cfg *config.Config, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		backend:      backend,
		policy:       NewPolicy(cfg.Commercial.ReservableTiers),
		defaultHours: cfg.Commercial.DefaultReserveHours,
		pageSize:     cfg.Commercial.PageSize,
		logger:       logger,
		now:          time.Now,
	}
}

// DefaultReserveHours is used when the operator leaves hours blank
func (c *Controller) DefaultReserveHours() int {
	return c.defaultHours
}

// View returns the last successfully loaded view, or nil
func (c *Controller) View() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Load fetches the collection for filter and makes it the current view
func (c *Controller) Load(ctx context.Context, filter models.LeadFilter) (*View, error) {
	filter.Tier = strings.ToUpper(strings.TrimSpace(filter.Tier))
	filter.ZoneKey = models.NormalizeZoneKey(filter.ZoneKey)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validationf("status", "Estado desconocido: %s", filter.Status)
	}
	if filter.PageSize <= 0 {
		filter.PageSize = c.pageSize
	}

	list, err := c.backend.ListLeads(ctx, filter)
	if err != nil {
		c.logger.WithError(err).Error("Failed to load leads")
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}

	now := c.now()
	view := &View{
		Filter:   filter,
		Rows:     make([]Row, 0, len(list.Items)),
		Page:     list.Page,
		PageSize: list.PageSize,
		Total:    list.Total,
		LoadedAt: now,
	}
	for _, item := range list.Items {
		view.Rows = append(view.Rows, Row{
			LeadItem: item,
			Actions:  c.policy.Allowed(item),
			Label:    Label(item),
			Expired:  Expired(item, now),
		})
	}

	c.mu.Lock()
	c.filter = filter
	c.view = view
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"tier":     filter.Tier,
		"zone_key": filter.ZoneKey,
		"status":   filter.Status,
		"count":    len(view.Rows),
	}).Debug("Loaded leads")
	return view, nil
}

// Reload refetches the collection with the last applied filter
func (c *Controller) Reload(ctx context.Context) (*View, error) {
	c.mu.Lock()
	filter := c.filter
	c.mu.Unlock()
	return c.Load(ctx, filter)
}

// Reserve holds an available lead for one agency
func (c *Controller) Reserve(ctx context.Context, leadID string, params ReserveParams) (*View, error) {
	if err := c.guard(leadID, ActionReserve); err != nil {
		return nil, err
	}
	if params.agencyID == "" {
		return nil, apperr.Validation("agency_id", "Selecciona una agencia")
	}

	_, err := c.backend.ReserveLead(ctx, leadID, models.ReserveRequest{AgencyID: params.agencyID, Hours: params.hours})
	if err != nil {
		return nil, c.failed(leadID, ActionReserve, err)
	}
	c.logger.WithFields(logrus.Fields{"lead_id": leadID, "agency_id": params.agencyID, "hours": params.hours}).Info("Lead reserved")
	return c.refresh(ctx, leadID, string(ActionReserve))
}

// Release returns a reserved lead to available
func (c *Controller) Release(ctx context.Context, leadID string) (*View, error) {
	if err := c.guard(leadID, ActionRelease); err != nil {
		return nil, err
	}

	_, err := c.backend.ReleaseReservation(ctx, leadID, models.ReleaseRequest{Reason: ReleaseReason})
	if err != nil {
		return nil, c.failed(leadID, ActionRelease, err)
	}
	c.logger.WithField("lead_id", leadID).Info("Reservation released")
	return c.refresh(ctx, leadID, string(ActionRelease))
}

// Sell closes a lead to an agency
func (c *Controller) Sell(ctx context.Context, leadID string, params SellParams) (*View, error) {
	if err := c.guard(leadID, ActionSell); err != nil {
		return nil, err
	}
	if params.agencyID == "" || params.priceEUR <= 0 {
		return nil, apperr.Validation("price_eur", "Precio inválido")
	}

	_, err := c.backend.SellLead(ctx, leadID, models.SellRequest{AgencyID: params.agencyID, PriceEUR: params.priceEUR})
	if err != nil {
		return nil, c.failed(leadID, ActionSell, err)
	}
	c.logger.WithFields(logrus.Fields{"lead_id": leadID, "agency_id": params.agencyID, "price_eur": params.priceEUR}).Info("Lead sold")
	return c.refresh(ctx, leadID, string(ActionSell))
}

// UpdateStatus sets the triage funnel status; any value may follow any other
func (c *Controller) UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus) (*View, error) {
	if !status.Valid() {
		return nil, apperr.Validationf("status", "Estado desconocido: %s", status)
	}

	if _, err := c.backend.PatchLeadStatus(ctx, leadID, status); err != nil {
		c.logger.WithError(err).WithField("lead_id", leadID).Error("Failed to update lead status")
		return nil, fmt.Errorf("failed to update status of lead %s: %w", leadID, err)
	}
	return c.refresh(ctx, leadID, "status")
}

// Detail returns the single-lead view with pricing and segment context
func (c *Controller) Detail(ctx context.Context, leadID string) (*models.LeadDetail, error) {
	detail, err := c.backend.GetLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead %s: %w", leadID, err)
	}
	return detail, nil
}

// Agencies returns the active agencies offered as reservation and sale targets
func (c *Controller) Agencies(ctx context.Context) ([]models.Agency, error) {
	agencies, err := c.backend.ListAgencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load agencies: %w", err)
	}
	active := make([]models.Agency, 0, len(agencies))
	for _, agency := range agencies {
		if agency.IsActive {
			active = append(active, agency)
		}
	}
	return active, nil
}

// guard rejects an action the current view shows as disabled. Leads absent
// from the view are left to the backend.
func (c *Controller) guard(leadID string, action Action) error {
	c.mu.Lock()
	row, ok := c.view.Row(leadID)
	c.mu.Unlock()

	if ok && !row.Actions.Allows(action) {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    apperr.CodeActionNotAllowed,
			Field:   string(action),
			Message: fmt.Sprintf("%s no disponible en estado %s", action, row.CommercialState),
		}
	}
	return nil
}

// RefreshError reports a change the backend accepted whose follow-up reload
// failed. The change must not be retried; the view is stale until the next Load.
type RefreshError struct {
	Operation string
	LeadID    string
	Err       error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s of lead %s applied but reload failed: %v", e.Operation, e.LeadID, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// refresh reloads after an applied change
func (c *Controller) refresh(ctx context.Context, leadID, operation string) (*View, error) {
	view, err := c.Reload(ctx)
	if err != nil {
		return nil, &RefreshError{Operation: operation, LeadID: leadID, Err: err}
	}
	return view, nil
}

func (c *Controller) failed(leadID string, action Action, err error) error {
	c.logger.WithError(err).WithFields(logrus.Fields{"lead_id": leadID, "action": action}).Error("Commercial transition failed")
	return fmt.Errorf("failed to %s lead %s: %w", action, leadID, err)
}
