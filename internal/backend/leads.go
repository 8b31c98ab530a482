package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

type statusPatch struct {
	Status models.LeadStatus `json:"status"`
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func leadPath(id string) string {
	return pathAdminLeads + "/" + url.PathEscape(id)
}

func filterQuery(filter models.LeadFilter) url.Values {
	query := url.Values{}
	if filter.Tier != "" {
		query.Set("tier", filter.Tier)
	}
	if zone := models.NormalizeZoneKey(filter.ZoneKey); zone != "" {
		query.Set("zone_key", zone)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(filter.PageSize))
	}
	return query
}

// ListLeads returns the lead collection matching filter
func (c *Client) ListLeads(ctx context.Context, filter models.LeadFilter) (*models.LeadList, error) {
	var list models.LeadList
	if err := c.do(ctx, http.MethodGet, pathAdminLeads, filterQuery(filter), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (*models.LeadDetail, error) {
	var detail models.LeadDetail
	if err := c.do(ctx, http.MethodGet, leadPath(id), nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) PatchLeadStatus(ctx context.Context, id string, status models.LeadStatus) (*models.StatusUpdate, error) {
	var update models.StatusUpdate
	if err := c.do(ctx, http.MethodPatch, leadPath(id), nil, statusPatch{Status: status}, &update); err != nil {
		return nil, err
	}
	return &update, nil
}

func (c *Client) ReserveLead(ctx context.Context, id string, req models.ReserveRequest) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := c.do(ctx, http.MethodPost, leadPath(id)+"/reserve", nil, req, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (c *Client) ReleaseReservation(ctx context.Context, id string, req models.ReleaseRequest) (*models.Release, error) {
	var release models.Release
	if err := c.do(ctx, http.MethodPost, leadPath(id)+"/release-reservation", nil, req, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Client) SellLead(ctx context.Context, id string, req models.SellRequest) (*models.Sale, error) {
	var sale models.Sale
	if err := c.do(ctx, http.MethodPost, leadPath(id)+"/sell", nil, req, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (c *Client) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	var resp itemsResponse[models.Agency]
	if err := c.do(ctx, http.MethodGet, pathAdminAgencies, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SalesExportURL returns the CSV export link for the given filters
func (c *Client) SalesExportURL(tier, zoneKey string) string {
	return c.endpoint(pathAdminSalesExport, filterQuery(models.LeadFilter{Tier: tier, ZoneKey: zoneKey}))
}
