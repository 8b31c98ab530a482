package intake

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/profile"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Score(ctx context.Context, input models.LeadInput) (*models.ScoreResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreResult), args.Error(1)
}

func (m *MockBackend) CreateLead(ctx context.Context, req models.CreateLeadRequest) (*models.CreateLeadResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateLeadResponse), args.Error(1)
}

type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track(name string, payload map[string]any) {
	m.Called(name, payload)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newPipeline(backend Backend, tracker Tracker) (*Pipeline, *profile.Profile) {
	cache := profile.New(profile.NewMemoryStore(), quietLogger())
	return NewPipeline(backend, cache, tracker, quietLogger()), cache
}

func TestPipeline_Submit_InvalidM2MakesNoCalls(t *testing.T) {
	for _, m2 := range []string{"0", "-3", ""} {
		backend := new(MockBackend)
		tracker := new(MockTracker)
		p, _ := newPipeline(backend, tracker)

		form := validForm()
		form.Set("m2", m2)
		_, err := p.Submit(context.Background(), form)

		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
		assert.Equal(t, "m2 debe ser mayor que 0.", UserMessage(err))
		backend.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
		backend.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
		tracker.AssertNotCalled(t, "Track", mock.Anything, mock.Anything)
	}
}

func TestPipeline_Submit_ScoreThenCreate(t *testing.T) {
	score := &models.ScoreResult{Score: 90, Tier: models.TierA, Recommendation: "Llamar hoy"}
	backend := new(MockBackend)
	var order []string
	backend.On("Score", mock.Anything, mock.MatchedBy(func(in models.LeadInput) bool {
		return in.Property.ZoneKey == "centro" && in.Property.M2 == 80
	})).Run(func(mock.Arguments) { order = append(order, "score") }).Return(score, nil).Once()
	backend.On("CreateLead", mock.Anything, mock.MatchedBy(func(req models.CreateLeadRequest) bool {
		return req.Score.Score == 90 && req.Score.Tier == models.TierA &&
			req.Input.Property.ZoneKey == "centro" && req.Lead.ConsentContact
	})).Run(func(mock.Arguments) { order = append(order, "create") }).
		Return(&models.CreateLeadResponse{LeadID: "L1", Status: models.StatusNew}, nil).Once()

	tracker := new(MockTracker)
	tracker.On("Track", telemetry.EventSubmitLead, map[string]any{
		"zone_key":               "centro",
		"sale_horizon":           "<3m",
		"motivation":             "traslado",
		"expected_price_present": false,
		"duplicate":              false,
	}).Once()

	p, cache := newPipeline(backend, tracker)
	outcome, err := p.Submit(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, []string{"score", "create"}, order)
	assert.Equal(t, "L1", outcome.LeadID)
	assert.False(t, outcome.Duplicate)
	backend.AssertExpectations(t)
	tracker.AssertExpectations(t)

	cached, lead, err := cache.LastResult()
	require.NoError(t, err)
	assert.Equal(t, 90, cached.Score)
	assert.Equal(t, "L1", lead.LeadID)
	id, ok := cache.LastLeadID()
	assert.True(t, ok)
	assert.Equal(t, "L1", id)
}

func TestPipeline_Submit_ZoneNotConfigured(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Score", mock.Anything, mock.Anything).
		Return(nil, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeZoneNotConfigured, "Zone not configured")).Once()
	tracker := new(MockTracker)

	p, cache := newPipeline(backend, tracker)
	_, err := p.Submit(context.Background(), validForm())

	require.Error(t, err)
	assert.Equal(t, MessageZoneNotConfigured, UserMessage(err))
	assert.NotEqual(t, MessageScoreFailed, UserMessage(err))
	backend.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
	tracker.AssertNotCalled(t, "Track", mock.Anything, mock.Anything)

	_, _, err = cache.LastResult()
	assert.ErrorIs(t, err, profile.ErrNoResult)
}

func TestPipeline_Submit_Duplicate(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Score", mock.Anything, mock.Anything).Return(&models.ScoreResult{Score: 72, Tier: models.TierB}, nil).Once()
	backend.On("CreateLead", mock.Anything, mock.Anything).Return(&models.CreateLeadResponse{
		Duplicate:      true,
		ExistingLeadID: "L0",
		Note:           "DUPLICATE_PHONE_ZONE_30D",
	}, nil).Once()

	tracker := new(MockTracker)
	tracker.On("Track", telemetry.EventSubmitLead, mock.MatchedBy(func(payload map[string]any) bool {
		return payload["duplicate"] == true
	})).Once()

	p, cache := newPipeline(backend, tracker)
	outcome, err := p.Submit(context.Background(), validForm())

	require.NoError(t, err)
	assert.True(t, outcome.Duplicate)
	assert.Equal(t, "L0", outcome.LeadID)
	backend.AssertNumberOfCalls(t, "CreateLead", 1)
	tracker.AssertExpectations(t)

	id, _ := cache.LastLeadID()
	assert.Equal(t, "L0", id)
}

func TestPipeline_Submit_CreateFailure(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Score", mock.Anything, mock.Anything).Return(&models.ScoreResult{Score: 60, Tier: models.TierC}, nil).Twice()
	backend.On("CreateLead", mock.Anything, mock.Anything).
		Return(nil, apperr.Transport(0, "request failed", errors.New("connection reset"))).Once()
	tracker := new(MockTracker)

	p, cache := newPipeline(backend, tracker)
	_, err := p.Submit(context.Background(), validForm())

	require.Error(t, err)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, StageCreate, submitErr.Stage)
	assert.Equal(t, MessageCreateFailed, UserMessage(err))
	tracker.AssertNotCalled(t, "Track", mock.Anything, mock.Anything)
	_, ok := cache.LastLeadID()
	assert.False(t, ok)
	_, _, err = cache.LastResult()
	assert.ErrorIs(t, err, profile.ErrNoResult)

	// a resubmission asks for a fresh score
	backend.On("CreateLead", mock.Anything, mock.Anything).Return(&models.CreateLeadResponse{LeadID: "L2"}, nil).Once()
	tracker.On("Track", telemetry.EventSubmitLead, mock.Anything).Once()
	_, err = p.Submit(context.Background(), validForm())
	require.NoError(t, err)
	backend.AssertNumberOfCalls(t, "Score", 2)
}

func TestPipeline_Submit_FailedCreateKeepsPreviousResult(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Score", mock.Anything, mock.Anything).Return(&models.ScoreResult{Score: 72, Tier: models.TierB}, nil).Once()
	backend.On("CreateLead", mock.Anything, mock.Anything).Return(&models.CreateLeadResponse{LeadID: "L1"}, nil).Once()
	backend.On("Score", mock.Anything, mock.Anything).Return(&models.ScoreResult{Score: 95, Tier: models.TierA}, nil).Once()
	backend.On("CreateLead", mock.Anything, mock.Anything).
		Return(nil, apperr.Domain(http.StatusBadRequest, apperr.CodeConsentRequired, "Consent is required")).Once()
	tracker := new(MockTracker)
	tracker.On("Track", telemetry.EventSubmitLead, mock.Anything).Once()

	p, cache := newPipeline(backend, tracker)
	_, err := p.Submit(context.Background(), validForm())
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), validForm())
	require.Error(t, err)

	score, lead, err := cache.LastResult()
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, models.TierB, score.Tier)
	assert.Equal(t, "L1", lead.LeadID)
	id, _ := cache.LastLeadID()
	assert.Equal(t, "L1", id)
	tracker.AssertNumberOfCalls(t, "Track", 1)
}

func TestPipeline_LastResult(t *testing.T) {
	backend := new(MockBackend)
	tracker := new(MockTracker)
	p, cache := newPipeline(backend, tracker)

	_, _, err := p.LastResult()
	assert.ErrorIs(t, err, profile.ErrNoResult)

	require.NoError(t, cache.SaveResult(&models.ScoreResult{Score: 88, Tier: models.TierA}, &models.CreateLeadResponse{LeadID: "L7"}))
	tracker.On("Track", telemetry.EventViewResult, mock.MatchedBy(func(payload map[string]any) bool {
		return payload["tier"] == models.TierA && payload["iei_score"] == 88
	})).Once()

	score, lead, err := p.LastResult()
	require.NoError(t, err)
	assert.Equal(t, 88, score.Score)
	assert.Equal(t, "L7", lead.ID())
	tracker.AssertExpectations(t)
}

func TestPipeline_RequestCall(t *testing.T) {
	tracker := new(MockTracker)
	tracker.On("Track", telemetry.EventCallRequested, map[string]any{"tier": "A"}).Once()

	p, _ := newPipeline(new(MockBackend), tracker)
	p.RequestCall("A")
	tracker.AssertExpectations(t)

	// no tracker configured
	assert.NotPanics(t, func() { NewPipeline(new(MockBackend), nil, nil, nil).RequestCall("A") })
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{
			name: "score transport without message",
			err:  &SubmitError{Stage: StageScore, Err: apperr.Transport(http.StatusBadGateway, "HTTP 502", nil)},
			want: MessageScoreFailed,
		},
		{
			name: "score backend message",
			err:  &SubmitError{Stage: StageScore, Err: apperr.Domain(http.StatusBadRequest, apperr.CodeValidation, "m2 must be > 0")},
			want: "m2 must be > 0",
		},
		{
			name: "create network failure",
			err:  &SubmitError{Stage: StageCreate, Err: apperr.Transport(0, "request failed", errors.New("dial tcp"))},
			want: MessageCreateFailed,
		},
		{
			name: "create consent required",
			err:  &SubmitError{Stage: StageCreate, Err: apperr.Domain(http.StatusBadRequest, apperr.CodeConsentRequired, "Consent required")},
			want: "Consent required",
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: MessageUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
