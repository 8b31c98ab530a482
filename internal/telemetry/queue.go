// Package telemetry is the fire-and-forget event channel. Producers push onto
// an in-memory queue and never observe delivery; a dispatcher drains it.
package telemetry

import (
	"errors"
	"sync"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// EventQueue is an in-memory queue of telemetry events
type EventQueue struct {
	items    chan models.Event
	done     chan struct{}
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(models.Event) error
}

// NewEventQueue creates a new event queue with the specified buffer size
func NewEventQueue(bufferSize int, logger *logrus.Logger) *EventQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &EventQueue{
		items:    make(chan models.Event, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(models.Event) error, 0),
	}
}

// Push adds an event without blocking
func (q *EventQueue) Push(event models.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- event:
		q.logger.WithField("event", event.Name).Debug("Queued event")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each event
func (q *EventQueue) Subscribe(handler func(models.Event) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing events; calling it twice or after Close is a no-op
func (q *EventQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

// process delivers events until the queue is closed and drained
func (q *EventQueue) process() {
	defer close(q.done)
	for event := range q.items {
		q.processEvent(event)
	}
}

func (q *EventQueue) processEvent(event models.Event) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			q.logger.WithError(err).WithField("event", event.Name).Warn("Handler failed to process event")
		}
	}
}

// Close stops accepting events; queued events are still delivered
func (q *EventQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	if !q.started {
		close(q.done)
	}
	return nil
}

// Done is closed once the queue is closed and every queued event was handled
func (q *EventQueue) Done() <-chan struct{} {
	return q.done
}

// Len returns the current number of events in the queue
func (q *EventQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *EventQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
