package orchestrator

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSendTimeout is how long Emit waits on a full buffer before dropping.
const DefaultSendTimeout = 100 * time.Millisecond

// EventEmitter fans workflow events out to a single consumer. Emitting never
// blocks a workflow for longer than SendTimeout, and emitting on a nil or
// closed emitter is a no-op.
type EventEmitter struct {
	// SendTimeout overrides DefaultSendTimeout when positive.
	SendTimeout time.Duration

	mu           sync.RWMutex
	closed       bool
	events       chan WorkflowEvent
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan WorkflowEvent, bufferSize),
	}
}

// Emit queues event, stamping it with the current time if unset.
func (e *EventEmitter) Emit(event WorkflowEvent) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.events <- event:
		return
	default:
	}

	timeout := e.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.events <- event:
	case <-timer.C:
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			slog.Warn("workflow event buffer full, dropping events", "dropped", count, "type", event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the channel the consumer reads from. It is closed by Close.
func (e *EventEmitter) Events() <-chan WorkflowEvent {
	return e.events
}

// Close stops accepting events and closes the channel. It is idempotent.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.events)
}
