package stubapi

import (
	"net/http"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/session"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Password string `json:"password"`
}

func invalidBody(err error) error {
	return apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, "Invalid request body: "+err.Error())
}

func (s *Server) ScoreLead(c *gin.Context) {
	var input models.LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	zone, err := s.store.Zone(input.Property.ZoneKey)
	if err != nil {
		s.abort(c, err)
		return
	}

	result, err := s.score(input, zone)
	if err != nil {
		s.logger.WithError(err).WithField("zone_key", zone.ZoneKey).Info("Scoring rejected")
		s.abort(c, err)
		return
	}
	result.Pricing = PriceLead(zone, input, result)

	c.JSON(http.StatusOK, result)
}

func (s *Server) CreateLead(c *gin.Context) {
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	if req.CompanyWebsite != nil && strings.TrimSpace(*req.CompanyWebsite) != "" {
		s.logger.WithField("session_id", c.GetHeader(session.Header)).Warn("Honeypot field filled")
		s.abort(c, apperr.Domain(http.StatusBadRequest, apperr.CodeBotDetected, "Bot detected"))
		return
	}
	if !req.Lead.ConsentContact {
		s.abort(c, apperr.Domain(http.StatusBadRequest, apperr.CodeConsentRequired, "Contact consent is required"))
		return
	}
	if req.Score.Tier == "" {
		s.abort(c, apperr.Domain(http.StatusBadRequest, apperr.CodeScoreRequired, "A score result is required"))
		return
	}
	if req.Input.Property.M2 <= 0 {
		s.abort(c, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, "m2 must be greater than 0"))
		return
	}

	zone, err := s.store.Zone(req.Input.Property.ZoneKey)
	if err != nil {
		s.abort(c, err)
		return
	}

	pricing := req.Score.Pricing
	if pricing == nil {
		pricing = PriceLead(zone, req.Input, &req.Score)
	}

	resp, created := s.store.CreateLead(req, pricing, zone)
	if !created {
		s.logger.WithField("existing_lead_id", resp.ExistingLeadID).Info("Duplicate lead")
		c.JSON(http.StatusOK, resp)
		return
	}

	s.logger.WithField("lead_id", resp.LeadID).Info("Lead created")
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) PostEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		s.abort(c, invalidBody(err))
		return
	}
	if strings.TrimSpace(event.Name) == "" {
		s.abort(c, apperr.Domain(http.StatusUnprocessableEntity, apperr.CodeValidation, "event_name is required"))
		return
	}

	record := EventRecord{Name: event.Name, SessionID: event.SessionID}
	if event.LeadID != nil {
		record.LeadID = *event.LeadID
	}

	if event.Name == "submit_lead" && record.LeadID != "" && s.store.MarkSubmitted(record.LeadID) {
		c.JSON(http.StatusOK, models.EventAck{OK: true, Deduplicated: true})
		return
	}

	s.mu.Lock()
	s.events = append(s.events, record)
	s.mu.Unlock()

	c.JSON(http.StatusOK, models.EventAck{OK: true})
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, invalidBody(err))
		return
	}
	if s.adminPassword == "" || req.Password != s.adminPassword {
		s.abort(c, apperr.Domain(http.StatusUnauthorized, apperr.CodeUnauthorized, "Invalid credentials"))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookie, s.newToken(), 12*3600, "/", "", false, true)
	s.logger.Info("Admin logged in")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) Logout(c *gin.Context) {
	if token, err := c.Cookie(AdminCookie); err == nil {
		s.dropToken(token)
	}
	c.SetCookie(AdminCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
