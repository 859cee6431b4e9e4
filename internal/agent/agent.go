// Package agent builds assistant agents for directory identities and keeps
// their short-term dialogue between calls.
package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/crewcal/internal/directory"
)

// ErrNotFound is returned when the directory has no such identity.
var ErrNotFound = directory.ErrNotFound

// NewAgentID returns an ID of the form agent_<identity>_<8 hex>.
func NewAgentID(identityID string) string {
	return fmt.Sprintf("agent_%s_%s", identityID, uuid.New().String()[:8])
}

// LifecycleEventType represents the type of agent lifecycle event.
type LifecycleEventType string

const (
	// LifecycleEventCreated is emitted when an agent is constructed for a call.
	LifecycleEventCreated LifecycleEventType = "created"
	// LifecycleEventActivated is emitted when an identity gets its first agent.
	LifecycleEventActivated LifecycleEventType = "activated"
)

// LifecycleEvent represents an agent lifecycle event.
type LifecycleEvent struct {
	Type       LifecycleEventType
	AgentID    string
	IdentityID string
	Timestamp  time.Time
}

// LifecycleEventHandler is a function that handles agent lifecycle events.
type LifecycleEventHandler func(LifecycleEvent)

// events fans lifecycle events out to registered handlers.
type events struct {
	mu       sync.RWMutex
	handlers []LifecycleEventHandler
}

func (e *events) add(h LifecycleEventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

func (e *events) emit(ev LifecycleEvent) {
	e.mu.RLock()
	handlers := make([]LifecycleEventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
