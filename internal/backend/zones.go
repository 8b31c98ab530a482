package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

func (c *Client) ListZones(ctx context.Context) ([]models.Zone, error) {
	var resp itemsResponse[models.Zone]
	if err := c.do(ctx, http.MethodGet, pathAdminZones, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) PatchZone(ctx context.Context, id string, patch models.ZonePatch) (*models.ZonePatchResult, error) {
	var result models.ZonePatchResult
	if err := c.do(ctx, http.MethodPatch, pathAdminZones+"/"+url.PathEscape(id), nil, patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
