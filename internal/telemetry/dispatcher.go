package telemetry

import (
	"context"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender delivers one event to the backend
type Sender interface {
	PostEvent(ctx context.Context, event models.Event) error
}

// Dispatcher drains the queue into a Sender, one attempt per event
type Dispatcher struct {
	sender  Sender
	queue   *EventQueue
	timeout time.Duration
	logger  *logrus.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewDispatcher(sender Sender, queue *EventQueue, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender:  sender,
		queue:   queue,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to the queue and begins delivery
func (d *Dispatcher) Start() {
	d.queue.Subscribe(d.deliver)
	d.queue.Start()
}

// Stop closes the queue and waits up to flush for queued events.
// Whatever is still pending afterwards is abandoned.
func (d *Dispatcher) Stop(flush time.Duration) {
	d.queue.Close()

	timer := time.NewTimer(flush)
	defer timer.Stop()
	select {
	case <-d.queue.Done():
	case <-timer.C:
		d.logger.WithField("pending", d.queue.Len()).Debug("Abandoning undelivered events")
	}
	d.cancel()
}

// deliver never returns an error: failures are logged and dropped
func (d *Dispatcher) deliver(event models.Event) error {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	if err := d.sender.PostEvent(ctx, event); err != nil {
		d.logger.WithError(apperr.Telemetry(err)).WithField("event", event.Name).Debug("Dropped event")
	}
	return nil
}
