package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ActionKind is the tag of an Action.
type ActionKind string

const (
	ActionCreateEvent       ActionKind = "create_event"
	ActionListEvents        ActionKind = "list_events"
	ActionSearchEvents      ActionKind = "search_events"
	ActionDeleteEvent       ActionKind = "delete_event"
	ActionCheckAvailability ActionKind = "check_availability"
	ActionAssignTask        ActionKind = "assign_task"
	ActionTeamStatus        ActionKind = "team_status"
	ActionTeamAvailability  ActionKind = "team_availability"
	ActionContactIndividual ActionKind = "contact_individual"
)

// Valid returns true if the kind is a known value.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionCreateEvent, ActionListEvents, ActionSearchEvents, ActionDeleteEvent,
		ActionCheckAvailability, ActionAssignTask, ActionTeamStatus,
		ActionTeamAvailability, ActionContactIndividual:
		return true
	default:
		return false
	}
}

// SupervisorOnly reports whether only supervisor agents may issue the action.
func (k ActionKind) SupervisorOnly() bool {
	switch k {
	case ActionAssignTask, ActionTeamStatus, ActionTeamAvailability, ActionContactIndividual:
		return true
	default:
		return false
	}
}

// Action is one case of the closed set of structured operations.
// Values passed between components always satisfy Validate.
type Action interface {
	Kind() ActionKind
	Validate() error
}

// ErrMissingField is wrapped by Validate when a required field is absent.
var ErrMissingField = errors.New("missing required field")

func missing(kind ActionKind, field string) error {
	return fmt.Errorf("%s: %w %q", kind, ErrMissingField, field)
}

// Upper bounds keep durations and day ranges inside what time.Duration
// and time.AddDate can represent.
const (
	MaxDurationHours = 24 * 366
	MaxRangeDays     = 3650
)

func positive(kind ActionKind, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: %s must be finite, got %v", kind, field, v)
	}
	if v <= 0 {
		return fmt.Errorf("%s: %s must be positive, got %v", kind, field, v)
	}
	return nil
}

func hoursInRange(kind ActionKind, field string, v float64) error {
	if err := positive(kind, field, v); err != nil {
		return err
	}
	if v > MaxDurationHours {
		return fmt.Errorf("%s: %s must be at most %d, got %v", kind, field, MaxDurationHours, v)
	}
	return nil
}

func daysInRange(kind ActionKind, field string, v int) error {
	if err := positive(kind, field, float64(v)); err != nil {
		return err
	}
	if v > MaxRangeDays {
		return fmt.Errorf("%s: %s must be at most %d, got %d", kind, field, MaxRangeDays, v)
	}
	return nil
}

// CreateEvent adds an event to the calendar.
type CreateEvent struct {
	Title         string  `json:"title"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
	Description   string  `json:"description,omitempty"`
}

func (CreateEvent) Kind() ActionKind { return ActionCreateEvent }

func (a CreateEvent) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return missing(a.Kind(), "title")
	}
	if strings.TrimSpace(a.StartTime) == "" {
		return missing(a.Kind(), "start_time")
	}
	return hoursInRange(a.Kind(), "duration_hours", a.DurationHours)
}

// ListEvents lists upcoming events.
type ListEvents struct {
	LookaheadDays int `json:"lookahead_days"`
}

func (ListEvents) Kind() ActionKind { return ActionListEvents }

func (a ListEvents) Validate() error {
	return daysInRange(a.Kind(), "lookahead_days", a.LookaheadDays)
}

// SearchEvents finds events matching free text.
type SearchEvents struct {
	Query     string `json:"query"`
	RangeDays int    `json:"range_days"`
}

func (SearchEvents) Kind() ActionKind { return ActionSearchEvents }

func (a SearchEvents) Validate() error {
	if strings.TrimSpace(a.Query) == "" {
		return missing(a.Kind(), "query")
	}
	return daysInRange(a.Kind(), "range_days", a.RangeDays)
}

// DeleteEvent removes the first event matching SearchQuery.
type DeleteEvent struct {
	SearchQuery string `json:"search_query"`
}

func (DeleteEvent) Kind() ActionKind { return ActionDeleteEvent }

func (a DeleteEvent) Validate() error {
	if strings.TrimSpace(a.SearchQuery) == "" {
		return missing(a.Kind(), "search_query")
	}
	return nil
}

// CheckAvailability asks whether [CheckTime, CheckTime+DurationHours] is free.
type CheckAvailability struct {
	CheckTime     string  `json:"check_time"`
	DurationHours float64 `json:"duration_hours"`
}

func (CheckAvailability) Kind() ActionKind { return ActionCheckAvailability }

func (a CheckAvailability) Validate() error {
	if strings.TrimSpace(a.CheckTime) == "" {
		return missing(a.Kind(), "check_time")
	}
	return hoursInRange(a.Kind(), "duration_hours", a.DurationHours)
}

// Priority is the urgency attached to an assigned task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// AssignTask delegates a task to the first free, timezone-eligible employee.
type AssignTask struct {
	TaskTitle     string   `json:"task_title"`
	TargetTime    string   `json:"target_time"`
	DurationHours float64  `json:"duration_hours"`
	Priority      Priority `json:"priority"`
}

func (AssignTask) Kind() ActionKind { return ActionAssignTask }

func (a AssignTask) Validate() error {
	if strings.TrimSpace(a.TaskTitle) == "" {
		return missing(a.Kind(), "task_title")
	}
	if strings.TrimSpace(a.TargetTime) == "" {
		return missing(a.Kind(), "target_time")
	}
	if err := hoursInRange(a.Kind(), "duration_hours", a.DurationHours); err != nil {
		return err
	}
	if !a.Priority.Valid() {
		return fmt.Errorf("%s: unknown priority %q", a.Kind(), a.Priority)
	}
	return nil
}

// TeamStatus summarizes the employee population.
type TeamStatus struct{}

func (TeamStatus) Kind() ActionKind { return ActionTeamStatus }

func (TeamStatus) Validate() error { return nil }

// TeamAvailability probes every connected employee at TargetTime.
type TeamAvailability struct {
	TargetTime    string  `json:"target_time"`
	DurationHours float64 `json:"duration_hours"`
}

func (TeamAvailability) Kind() ActionKind { return ActionTeamAvailability }

func (a TeamAvailability) Validate() error {
	if strings.TrimSpace(a.TargetTime) == "" {
		return missing(a.Kind(), "target_time")
	}
	return hoursInRange(a.Kind(), "duration_hours", a.DurationHours)
}

// ContactIndividual relays Message to the employee whose name matches TargetName.
type ContactIndividual struct {
	TargetName string `json:"target_name"`
	Message    string `json:"message"`
}

func (ContactIndividual) Kind() ActionKind { return ActionContactIndividual }

func (a ContactIndividual) Validate() error {
	if strings.TrimSpace(a.TargetName) == "" {
		return missing(a.Kind(), "target_name")
	}
	if strings.TrimSpace(a.Message) == "" {
		return missing(a.Kind(), "message")
	}
	return nil
}
