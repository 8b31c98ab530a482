package telemetry

import (
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	EventViewLanding   = "view_landing"
	EventStartForm     = "start_form"
	EventStepComplete  = "step_complete"
	EventSubmitLead    = "submit_lead"
	EventViewResult    = "view_result"
	EventCallRequested = "call_requested"
)

// Context supplies the correlation ids attached to every event
type Context interface {
	SessionID() string
	LastLeadID() (string, bool)
}

// Emitter builds events and pushes them onto the queue
type Emitter struct {
	queue   *EventQueue
	context Context
	version string
	logger  *logrus.Logger
}

// NewEmitter returns an emitter; a nil queue makes Track a no-op
func NewEmitter(queue *EventQueue, context Context, version string, logger *logrus.Logger) *Emitter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Emitter{
		queue:   queue,
		context: context,
		version: version,
		logger:  logger,
	}
}

// Track records a named event. It never blocks and never reports failure.
func (e *Emitter) Track(name string, payload map[string]any) {
	if e == nil || e.queue == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}

	event := models.Event{
		Name:      name,
		Version:   e.version,
		SessionID: e.context.SessionID(),
		Payload:   payload,
	}
	if leadID, ok := e.context.LastLeadID(); ok {
		event.LeadID = &leadID
	}

	if err := e.queue.Push(event); err != nil {
		e.logger.WithError(err).WithField("event", name).Debug("Event not queued")
	}
}
