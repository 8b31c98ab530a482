package stubapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/backend"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/commercial"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/intake"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/profile"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/stubapi"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/telemetry"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/zones"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	cfg        *config.Config
	server     *stubapi.Server
	hits       *int64
	client     *backend.Client
	profile    *profile.Profile
	dispatcher *telemetry.Dispatcher
	pipeline   *intake.Pipeline
	controller *commercial.Controller
	editor     *zones.Editor
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Stub.AdminPassword = "secret"
	seed, err := config.LoadZoneSeed("")
	require.NoError(t, err)

	server := stubapi.NewServer(cfg, seed, logger)
	var hits int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		server.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	prof := profile.New(profile.NewMemoryStore(), logger)
	client, err := backend.NewClient(ts.URL, 5*time.Second, 0, logger, backend.WithSession(prof))
	require.NoError(t, err)

	queue := telemetry.NewEventQueue(cfg.Telemetry.BufferSize, logger)
	dispatcher := telemetry.NewDispatcher(client, queue, time.Second, logger)
	dispatcher.Start()
	t.Cleanup(func() { dispatcher.Stop(time.Second) })
	emitter := telemetry.NewEmitter(queue, prof, cfg.Telemetry.EventVersion, logger)

	return &harness{
		cfg:        cfg,
		server:     server,
		hits:       &hits,
		client:     client,
		profile:    prof,
		dispatcher: dispatcher,
		pipeline:   intake.NewPipeline(client, prof, emitter, logger),
		controller: commercial.NewController(client, cfg, logger),
		editor:     zones.NewEditor(client, logger),
	}
}

func hotForm(zone, phone string) url.Values {
	return url.Values{
		"zone_key":        {zone},
		"municipality":    {"Castelldefels"},
		"property_type":   {"atico"},
		"m2":              {"80"},
		"condition":       {"reformado"},
		"has_elevator":    {"on"},
		"has_terrace":     {"on"},
		"has_parking":     {"on"},
		"has_views":       {"on"},
		"sale_horizon":    {"<3m"},
		"motivation":      {"traslado"},
		"already_listed":  {"no"},
		"exclusivity":     {"si"},
		"expected_price":  {"344000"},
		"owner_name":      {"Marta"},
		"owner_email":     {"marta@example.com"},
		"owner_phone":     {phone},
		"consent_contact": {"on"},
	}
}

func TestIntake_SubmitCreatesLeadAndEmitsEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	outcome, err := h.pipeline.Submit(ctx, hotForm(" Castelldefels ", "600123123"))
	require.NoError(t, err)
	assert.Equal(t, models.TierA, outcome.Score.Tier)
	assert.False(t, outcome.Duplicate)
	require.NotEmpty(t, outcome.LeadID)

	leadID, ok := h.profile.LastLeadID()
	require.True(t, ok)
	assert.Equal(t, outcome.LeadID, leadID)

	score, lead, err := h.profile.LastResult()
	require.NoError(t, err)
	assert.Equal(t, outcome.Score.Score, score.Score)
	assert.Equal(t, outcome.LeadID, lead.ID())

	h.dispatcher.Stop(time.Second)
	events := h.server.Events()
	require.Len(t, events, 1)
	assert.Equal(t, telemetry.EventSubmitLead, events[0].Name)
	assert.Equal(t, outcome.LeadID, events[0].LeadID)
	assert.Equal(t, h.profile.SessionID(), events[0].SessionID)
}

func TestIntake_InvalidAreaSendsNothing(t *testing.T) {
	h := newHarness(t)

	form := hotForm("castelldefels", "600000000")
	form.Set("m2", "0")
	_, err := h.pipeline.Submit(context.Background(), form)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, int64(0), atomic.LoadInt64(h.hits))
}

func TestIntake_ZoneNotConfigured(t *testing.T) {
	h := newHarness(t)

	_, err := h.pipeline.Submit(context.Background(), hotForm("zona_inexistente", "600000001"))
	require.Error(t, err)
	assert.True(t, apperr.IsZoneNotConfigured(err))
	assert.Equal(t, intake.MessageZoneNotConfigured, intake.UserMessage(err))
	assert.Equal(t, int64(1), atomic.LoadInt64(h.hits))
}

func TestIntake_DuplicateIsSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.pipeline.Submit(ctx, hotForm("castelldefels", "600 555 111"))
	require.NoError(t, err)

	second, err := h.pipeline.Submit(ctx, hotForm("castelldefels", "600555111"))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.LeadID, second.LeadID)
}

func TestIntake_RejectedResubmissionKeepsLastResult(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.pipeline.Submit(ctx, hotForm("castelldefels", "600777001"))
	require.NoError(t, err)

	form := hotForm("gava", "600777002")
	form.Del("consent_contact")
	_, err = h.pipeline.Submit(ctx, form)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeConsentRequired))

	score, lead, err := h.profile.LastResult()
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, first.Score.Score, score.Score)
	assert.Equal(t, first.LeadID, lead.ID())
	leadID, _ := h.profile.LastLeadID()
	assert.Equal(t, first.LeadID, leadID)
}

func submitTierA(t *testing.T, h *harness, phone string) string {
	outcome, err := h.pipeline.Submit(context.Background(), hotForm("castelldefels", phone))
	require.NoError(t, err)
	require.Equal(t, models.TierA, outcome.Score.Tier)
	return outcome.LeadID
}

func TestCommercial_ReserveReleaseSell(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	leadID := submitTierA(t, h, "611222333")

	_, err := h.controller.Load(ctx, models.LeadFilter{})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	require.NoError(t, h.client.Login(ctx, "secret"))

	view, err := h.controller.Load(ctx, models.LeadFilter{Tier: "a", ZoneKey: " Castelldefels "})
	require.NoError(t, err)
	row, ok := view.Row(leadID)
	require.True(t, ok)
	assert.Equal(t, models.StateAvailable, row.CommercialState)
	assert.True(t, row.Actions.Reserve)
	assert.False(t, row.Actions.Release)
	assert.True(t, row.Actions.Sell)

	reserve, err := commercial.NewReserveParams("agency-garraf", "", h.controller.DefaultReserveHours())
	require.NoError(t, err)
	view, err = h.controller.Reserve(ctx, leadID, reserve)
	require.NoError(t, err)
	row, _ = view.Row(leadID)
	assert.Equal(t, models.StateReserved, row.CommercialState)
	require.NotNil(t, row.ReservedToAgencyID)
	assert.Equal(t, "agency-garraf", *row.ReservedToAgencyID)
	assert.False(t, row.Actions.Reserve)
	assert.True(t, row.Actions.Release)

	// reserving again is rejected locally
	_, err = h.controller.Reserve(ctx, leadID, reserve)
	assert.True(t, apperr.HasCode(err, apperr.CodeActionNotAllowed))

	other, err := commercial.NewSellParams("agency-castelldefels", "45")
	require.NoError(t, err)
	_, err = h.controller.Sell(ctx, leadID, other)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeReservedForOther))
	assert.Equal(t, models.StateReserved, h.controller.View().Rows[0].CommercialState)

	view, err = h.controller.Release(ctx, leadID)
	require.NoError(t, err)
	row, _ = view.Row(leadID)
	assert.Equal(t, models.StateAvailable, row.CommercialState)

	sell, err := commercial.NewSellParams("agency-castelldefels", "45.7")
	require.NoError(t, err)
	view, err = h.controller.Sell(ctx, leadID, sell)
	require.NoError(t, err)
	row, _ = view.Row(leadID)
	assert.Equal(t, models.StateSold, row.CommercialState)
	assert.Equal(t, models.StatusSold, row.Status)
	assert.False(t, row.Actions.Reserve || row.Actions.Release || row.Actions.Sell)

	detail, err := h.controller.Detail(ctx, leadID)
	require.NoError(t, err)
	require.NotNil(t, detail.SalePriceEUR)
	assert.Equal(t, 46, *detail.SalePriceEUR)
}

func TestCommercial_StatusAndAgencies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	leadID := submitTierA(t, h, "622333444")
	require.NoError(t, h.client.Login(ctx, "secret"))

	_, err := h.controller.Load(ctx, models.LeadFilter{})
	require.NoError(t, err)

	view, err := h.controller.UpdateStatus(ctx, leadID, models.StatusContacted)
	require.NoError(t, err)
	row, _ := view.Row(leadID)
	assert.Equal(t, models.StatusContacted, row.Status)

	agencies, err := h.controller.Agencies(ctx)
	require.NoError(t, err)
	for _, agency := range agencies {
		assert.True(t, agency.IsActive)
	}
	assert.Len(t, agencies, 2)
}

func TestZones_EditAndRescore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.client.Login(ctx, "secret"))

	before := atomic.LoadInt64(h.hits)
	malformed := `{"A": 90`
	_, err := h.editor.Save(ctx, "zone-castelldefels", zones.Edit{PricingJSON: &malformed})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, before, atomic.LoadInt64(h.hits))

	pricing := `{"A": 100, "A_PLUS": 200, "confidence": {"medium": 1.0}}`
	list, err := h.editor.Save(ctx, "zone-castelldefels", zones.Edit{PricingJSON: &pricing, DemandLevel: "alta"})
	require.NoError(t, err)
	zone := config.GetZoneByKey(list, "castelldefels")
	require.NotNil(t, zone)
	assert.Equal(t, 200.0, zone.PricingJSON["A_PLUS"])

	outcome, err := h.pipeline.Submit(ctx, hotForm("castelldefels", "633444555"))
	require.NoError(t, err)
	require.NotNil(t, outcome.Lead.Pricing)
	assert.Equal(t, 200.0, outcome.Lead.Pricing.LeadPriceEUR)

	cleared := "{}"
	list, err = h.editor.Save(ctx, "zone-castelldefels", zones.Edit{PricingJSON: &cleared})
	require.NoError(t, err)
	zone = config.GetZoneByKey(list, "castelldefels")
	require.NotNil(t, zone)
	assert.Empty(t, zone.PricingJSON)

	outcome, err = h.pipeline.Submit(ctx, hotForm("castelldefels", "633444557"))
	require.NoError(t, err)
	require.NotNil(t, outcome.Lead.Pricing)
	assert.Equal(t, 70.0, outcome.Lead.Pricing.LeadPriceEUR)

	inactive := false
	_, err = h.editor.Save(ctx, "zone-castelldefels", zones.Edit{IsActive: &inactive})
	require.NoError(t, err)
	_, err = h.pipeline.Submit(ctx, hotForm("castelldefels", "633444556"))
	assert.True(t, apperr.IsZoneNotConfigured(err))
}
