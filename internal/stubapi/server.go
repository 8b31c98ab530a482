// Package stubapi is an in-process reference implementation of the lead,
// scoring and back-office API. cmd/server runs it; the end-to-end tests drive
// the client packages against it.
package stubapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdminCookie holds the back-office session token
const AdminCookie = "iei_admin_session"

type Server struct {
	store         *Store
	score         ScoreFunc
	adminPassword string
	origins       []string
	logger        *logrus.Logger
	router        *gin.Engine

	mu     sync.Mutex
	tokens map[string]time.Time
	events []EventRecord
}

// EventRecord is an accepted telemetry event
type EventRecord struct {
	Name      string
	SessionID string
	LeadID    string
}

type Option func(*Server)

// WithScoreFunc replaces the default scorer
func WithScoreFunc(fn ScoreFunc) Option {
	return func(s *Server) {
		s.score = fn
	}
}

// WithClock sets the time source used for reservations and duplicate windows
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.store.now = now
	}
}

func NewServer(cfg *config.Config, seed *config.ZoneSeed, logger *logrus.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	window := time.Duration(cfg.Stub.DuplicateWindowDays) * 24 * time.Hour

	s := &Server{
		store:         NewStore(seed, window, time.Now),
		score:         DefaultScore,
		adminPassword: cfg.Stub.AdminPassword,
		origins:       cfg.Stub.AllowedOrigins,
		logger:        logger,
		tokens:        make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRoutes()
	return s
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store exposes the backing state
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", session.Header},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.POST("/iei/score", s.ScoreLead)
		api.POST("/leads", s.CreateLead)
		api.POST("/events", s.PostEvent)
		api.POST("/admin/login", s.Login)
		api.POST("/admin/logout", s.Logout)
	}

	admin := api.Group("/admin", s.requireAdmin)
	{
		admin.GET("/leads", s.ListLeads)
		admin.GET("/leads/:id", s.GetLead)
		admin.PATCH("/leads/:id", s.PatchLeadStatus)
		admin.POST("/leads/:id/reserve", s.ReserveLead)
		admin.POST("/leads/:id/release-reservation", s.ReleaseReservation)
		admin.POST("/leads/:id/sell", s.SellLead)
		admin.GET("/agencies", s.ListAgencies)
		admin.GET("/zones", s.ListZones)
		admin.PATCH("/zones/:id", s.PatchZone)
		admin.GET("/sales/export.csv", s.ExportSales)
	}
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"session_id": c.GetHeader(session.Header),
			"duration":   time.Since(start).String(),
		}).Debug("Request handled")
	}
}

func (s *Server) requireAdmin(c *gin.Context) {
	token, err := c.Cookie(AdminCookie)
	if err == nil {
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if ok {
			c.Next()
			return
		}
	}
	s.abort(c, apperr.Domain(http.StatusUnauthorized, apperr.CodeUnauthorized, "Admin session required"))
}

func (s *Server) newToken() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = s.store.now()
	s.mu.Unlock()
	return token
}

// pruneTokens drops admin sessions issued before cutoff
func (s *Server) pruneTokens(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for token, issued := range s.tokens {
		if issued.Before(cutoff) {
			delete(s.tokens, token)
			dropped++
		}
	}
	return dropped
}

func (s *Server) dropToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// abort writes the error envelope for err
func (s *Server) abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "Internal server error"
	var details any

	if e, ok := apperr.As(err); ok {
		code = string(e.Code)
		message = e.Message
		switch {
		case e.Status != 0:
			status = e.Status
		case e.Kind == apperr.KindValidation:
			status = http.StatusUnprocessableEntity
		}
		if e.Field != "" {
			details = gin.H{"field": e.Field}
		}
	} else {
		s.logger.WithError(err).Error("Unhandled error")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message, "details": details}})
}

// Events returns the accepted events in arrival order
func (s *Server) Events() []EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]EventRecord, len(s.events))
	copy(events, s.events)
	return events
}
