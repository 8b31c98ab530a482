package backend

import (
	"context"
	"net/http"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

// Score requests a score for input. A 422 ZONE_NOT_CONFIGURED comes back as a domain error.
func (c *Client) Score(ctx context.Context, input models.LeadInput) (*models.ScoreResult, error) {
	var result models.ScoreResult
	if err := c.do(ctx, http.MethodPost, pathScore, nil, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateLead submits a scored lead. Duplicates are a successful response.
func (c *Client) CreateLead(ctx context.Context, req models.CreateLeadRequest) (*models.CreateLeadResponse, error) {
	var resp models.CreateLeadResponse
	if err := c.do(ctx, http.MethodPost, pathLeads, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostEvent sends one telemetry event
func (c *Client) PostEvent(ctx context.Context, event models.Event) error {
	var ack models.EventAck
	return c.do(ctx, http.MethodPost, pathEvents, nil, event, &ack)
}
