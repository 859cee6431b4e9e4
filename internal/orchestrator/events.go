package orchestrator

import (
	"time"
)

// EventType represents the type of workflow event.
type EventType string

const (
	// EventStateChanged indicates the supervisor moved to a new State.
	EventStateChanged EventType = "state_changed"
	// EventCandidatesFiltered reports how many employees passed the shift filter.
	EventCandidatesFiltered EventType = "candidates_filtered"
	// EventProbeCompleted reports one candidate's availability.
	EventProbeCompleted EventType = "probe_completed"
	// EventDelegated indicates work was handed to an assistant.
	EventDelegated EventType = "delegated"
)

// WorkflowEvent represents an event emitted while a supervisor handles a
// directive. The TUI renders them as progress lines.
type WorkflowEvent struct {
	Type EventType
	// SupervisorID is the identity running the workflow.
	SupervisorID string
	// State is set on EventStateChanged.
	State State
	// IdentityID names the assistant involved, if any.
	IdentityID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
