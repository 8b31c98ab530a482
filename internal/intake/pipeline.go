// Package intake turns a visitor's form into a scored, deduplicated lead
// through a strict score-then-create exchange.
package intake

import (
	"context"
	"net/url"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// Backend is the scoring and lead-creation boundary
type Backend interface {
	Score(ctx context.Context, input models.LeadInput) (*models.ScoreResult, error)
	CreateLead(ctx context.Context, req models.CreateLeadRequest) (*models.CreateLeadResponse, error)
}

// Cache is the local result store shared with the result display
type Cache interface {
	SaveResult(result *models.ScoreResult, lead *models.CreateLeadResponse) error
	LastResult() (*models.ScoreResult, *models.CreateLeadResponse, error)
}

type Tracker interface {
	Track(name string, payload map[string]any)
}

type Pipeline struct {
	backend Backend
	cache   Cache
	tracker Tracker
	logger  *logrus.Logger
}

func NewPipeline(backend Backend, cache Cache, tracker Tracker, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		backend: backend,
		cache:   cache,
		tracker: tracker,
		logger:  logger,
	}
}

// Outcome is handed to the result display after a successful submission
type Outcome struct {
	Score     models.ScoreResult        `json:"score"`
	Lead      models.CreateLeadResponse `json:"lead"`
	LeadID    string                    `json:"lead_id"`
	Duplicate bool                      `json:"duplicate"`
}

// Submit validates the raw form and runs the full sequence
func (p *Pipeline) Submit(ctx context.Context, values url.Values) (*Outcome, error) {
	submission, err := ParseForm(values)
	if err != nil {
		return nil, &SubmitError{Stage: StageValidate, Err: err}
	}
	return p.Run(ctx, submission)
}

// Run scores the submission, creates the lead with that score, caches both
// and emits submit_lead. Nothing is cached until the lead exists; any failure
// ends the attempt and a resubmission starts again from a fresh score.
func (p *Pipeline) Run(ctx context.Context, submission *Submission) (*Outcome, error) {
	log := p.logger.WithField("zone_key", submission.Input.Property.ZoneKey)

	score, err := p.backend.Score(ctx, submission.Input)
	if err != nil {
		log.WithError(err).Info("Scoring failed")
		return nil, &SubmitError{Stage: StageScore, Err: err}
	}
	lead, err := p.backend.CreateLead(ctx, models.CreateLeadRequest{
		Lead:           submission.Contact,
		Input:          submission.Input,
		Score:          *score,
		CompanyWebsite: submission.CompanyWebsite,
	})
	if err != nil {
		log.WithError(err).Info("Lead creation failed")
		return nil, &SubmitError{Stage: StageCreate, Err: err}
	}

	if err := p.cache.SaveResult(score, lead); err != nil {
		log.WithError(err).Warn("Failed to cache submission result")
	}

	outcome := &Outcome{
		Score:     *score,
		Lead:      *lead,
		LeadID:    lead.ID(),
		Duplicate: lead.Duplicate,
	}
	log.WithFields(logrus.Fields{
		"lead_id":   outcome.LeadID,
		"tier":      score.Tier,
		"duplicate": outcome.Duplicate,
	}).Info("Lead submitted")

	p.track(telemetry.EventSubmitLead, map[string]any{
		"zone_key":               submission.Input.Property.ZoneKey,
		"sale_horizon":           submission.Input.Owner.SaleHorizon,
		"motivation":             submission.Input.Owner.Motivation,
		"expected_price_present": submission.Input.Owner.ExpectedPrice != nil,
		"duplicate":              outcome.Duplicate,
	})
	return outcome, nil
}

// LastResult returns the cached submission for display and records view_result
func (p *Pipeline) LastResult() (*models.ScoreResult, *models.CreateLeadResponse, error) {
	score, lead, err := p.cache.LastResult()
	if err != nil {
		return nil, nil, err
	}

	p.track(telemetry.EventViewResult, map[string]any{
		"iei_score":   score.Score,
		"tier":        score.Tier,
		"gap_percent": score.PricingAlignment.GapPercent,
	})
	return score, lead, nil
}

// RequestCall records that the visitor asked to be called back
func (p *Pipeline) RequestCall(tier string) {
	p.track(telemetry.EventCallRequested, map[string]any{"tier": tier})
}

func (p *Pipeline) track(name string, payload map[string]any) {
	if p.tracker == nil {
		return
	}
	p.tracker.Track(name, payload)
}
