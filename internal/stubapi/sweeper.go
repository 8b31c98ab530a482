package stubapi

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// adminSessionTTL matches the admin cookie lifetime
const adminSessionTTL = 12 * time.Hour

// Sweeper periodically returns lapsed reservations to available and drops
// expired admin sessions. Reads expire reservations lazily as well; the
// sweep keeps the export and counts current between reads.
type Sweeper struct {
	server   *Server
	interval time.Duration
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewSweeper(server *Server, interval time.Duration, logger *logrus.Logger) *Sweeper {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		server:   server,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pass and returns the number of released reservations and dropped sessions
func (s *Sweeper) Sweep() (int, int) {
	released := s.server.store.ExpireReservations()
	dropped := s.server.pruneTokens(s.server.store.now().Add(-adminSessionTTL))

	if released > 0 || dropped > 0 {
		s.logger.WithFields(logrus.Fields{
			"released_reservations": released,
			"dropped_sessions":      dropped,
		}).Info("Sweep completed")
	}
	return released, dropped
}

// Stop halts the sweep and waits for a running pass to finish
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}
