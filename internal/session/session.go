// Package session issues the anonymous visitor identifier attached to every request.
package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Key is the profile entry holding the session id
const Key = "iei_session_id"

// Header carries the session id on outbound requests
const Header = "X-Session-ID"

// Store is the persistent key/value context the id lives in
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

type Provider struct {
	store    Store
	logger   *logrus.Logger
	mu       sync.Mutex
	last     string
	generate func() (uuid.UUID, error)
	now      func() time.Time
}

func NewProvider(store Store, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = logrus.New()
	}
	return &Provider{
		store:    store,
		logger:   logger,
		generate: uuid.NewRandom,
		now:      time.Now,
	}
}

// ID returns the persisted session id, creating it on first use.
// It never fails: store errors fall back to the last id seen by this
// process, and a failing random source falls back to a timestamp.
func (p *Provider) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	value, ok, err := p.store.Get(Key)
	switch {
	case err != nil:
		p.logger.WithError(err).Warn("Failed to read session id")
		if p.last != "" {
			return p.last
		}
	case ok && len(value) > 0:
		p.last = string(value)
		return p.last
	}

	id := p.newID()
	if err := p.store.Put(Key, []byte(id)); err != nil {
		p.logger.WithError(err).Warn("Failed to persist session id")
	}
	p.last = id
	p.logger.WithField("session_id", id).Debug("Issued new session id")
	return id
}

func (p *Provider) newID() string {
	id, err := p.generate()
	if err != nil {
		p.logger.WithError(err).Warn("Random source unavailable, using timestamp session id")
		return strconv.FormatInt(p.now().UnixMilli(), 10)
	}
	return id.String()
}
