// Package profile is the explicit client context shared by the intake
// pipeline, the event emitter and the back-office CLI. It is created at
// start-up and cleared only through Reset or Clear.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	KeyLastResult   = "iei_last_result"
	KeyLastLead     = "iei_last_lead"
	KeyLastLeadID   = "iei_last_lead_id"
	KeyAdminCookies = "iei_admin_cookies"
)

var ErrNoResult = errors.New("no cached result")

type Profile struct {
	store   Store
	session *session.Provider
	logger  *logrus.Logger
	mu      sync.Mutex
}

func New(store Store, logger *logrus.Logger) *Profile {
	if logger == nil {
		logger = logrus.New()
	}
	return &Profile{
		store:   store,
		session: session.NewProvider(store, logger),
		logger:  logger,
	}
}

// Open returns a profile backed by SQLite at path, or by memory when path is empty
func Open(path string, logger *logrus.Logger) (*Profile, error) {
	if path == "" {
		return New(NewMemoryStore(), logger), nil
	}
	store, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return New(store, logger), nil
}

// SessionID returns the stable anonymous visitor id
func (p *Profile) SessionID() string {
	return p.session.ID()
}

// LastLeadID returns the last lead id known to this profile
func (p *Profile) LastLeadID() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	value, ok, err := p.store.Get(KeyLastLeadID)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to read last lead id")
		return "", false
	}
	if !ok || len(value) == 0 {
		return "", false
	}
	return string(value), true
}

// SaveResult caches a completed submission: the score, the lead it produced
// and the lead id used to correlate later events
func (p *Profile) SaveResult(result *models.ScoreResult, lead *models.CreateLeadResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.putJSON(KeyLastResult, result); err != nil {
		return err
	}
	if err := p.putJSON(KeyLastLead, lead); err != nil {
		return err
	}
	if id := lead.ID(); id != "" {
		if err := p.store.Put(KeyLastLeadID, []byte(id)); err != nil {
			return fmt.Errorf("failed to store last lead id: %w", err)
		}
	}
	return nil
}

// LastResult returns the cached score and, when present, the lead it produced
func (p *Profile) LastResult() (*models.ScoreResult, *models.CreateLeadResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result models.ScoreResult
	ok, err := p.getJSON(KeyLastResult, &result)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNoResult
	}

	var lead models.CreateLeadResponse
	ok, err = p.getJSON(KeyLastLead, &lead)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return &result, nil, nil
	}
	return &result, &lead, nil
}

// SaveCookies stores the back-office session cookies
func (p *Profile) SaveCookies(cookies []*http.Cookie) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.putJSON(KeyAdminCookies, cookies)
}

// Cookies returns the stored back-office session cookies
func (p *Profile) Cookies() ([]*http.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var cookies []*http.Cookie
	if _, err := p.getJSON(KeyAdminCookies, &cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}

// Reset drops cached results, the last lead id and back-office cookies.
// The session id survives.
func (p *Profile) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Delete(KeyLastResult, KeyLastLead, KeyLastLeadID, KeyAdminCookies); err != nil {
		return fmt.Errorf("failed to reset profile: %w", err)
	}
	return nil
}

// Clear wipes the whole profile; the next SessionID call issues a new id
func (p *Profile) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Delete(session.Key, KeyLastResult, KeyLastLead, KeyLastLeadID, KeyAdminCookies); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

func (p *Profile) Close() error {
	return p.store.Close()
}

func (p *Profile) putJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := p.store.Put(key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (p *Profile) getJSON(key string, v interface{}) (bool, error) {
	data, ok, err := p.store.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
