package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ShayCichocki/crewcal/pkg/models"
)

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string ("json", "JSON", ...)
		if !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject cuts the outermost JSON object out of s.
func extractObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		preview := s
		if len(preview) > 200 {
			preview = preview[:200] + "... (truncated)"
		}
		return "", fmt.Errorf("no JSON object found in %d chars: %q", len(s), preview)
	}
	return s[start : end+1], nil
}

// number accepts a JSON number or a numeric string.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("not a finite number: %q", s)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type envelope struct {
	Action string `json:"action"`
}

type createEventWire struct {
	Title         *string `json:"title"`
	StartTime     *string `json:"start_time"`
	DurationHours *number `json:"duration_hours"`
	Description   *string `json:"description"`
}

type listEventsWire struct {
	LookaheadDays *number `json:"lookahead_days"`
}

type searchEventsWire struct {
	Query     *string `json:"query"`
	RangeDays *number `json:"range_days"`
}

type deleteEventWire struct {
	SearchQuery *string `json:"search_query"`
}

type checkAvailabilityWire struct {
	CheckTime     *string `json:"check_time"`
	DurationHours *number `json:"duration_hours"`
}

type assignTaskWire struct {
	TaskTitle     *string `json:"task_title"`
	TargetTime    *string `json:"target_time"`
	DurationHours *number `json:"duration_hours"`
	Priority      *string `json:"priority"`
}

type teamAvailabilityWire struct {
	TargetTime    *string `json:"target_time"`
	DurationHours *number `json:"duration_hours"`
}

type contactIndividualWire struct {
	TargetName *string `json:"target_name"`
	Message    *string `json:"message"`
}

// fields collects required-field errors while copying pointer fields out.
type fields struct {
	kind models.ActionKind
	err  error
}

func (f *fields) str(name string, p *string) string {
	if p == nil {
		f.fail(name)
		return ""
	}
	return *p
}

func (f *fields) num(name string, p *number) float64 {
	if p == nil {
		f.fail(name)
		return 0
	}
	return float64(*p)
}

func (f *fields) integer(name string, p *number) int {
	v := f.num(name, p)
	if f.err == nil && v != math.Trunc(v) {
		f.err = fmt.Errorf("%s: %s must be a whole number, got %v", f.kind, name, v)
	}
	if f.err == nil && math.Abs(v) > math.MaxInt32 {
		f.err = fmt.Errorf("%s: %s out of range, got %v", f.kind, name, v)
	}
	if f.err != nil {
		return 0
	}
	return int(v)
}

func (f *fields) fail(name string) {
	if f.err == nil {
		f.err = fmt.Errorf("%s: %w %q", f.kind, models.ErrMissingField, name)
	}
}

func optional(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Decode turns completion text into a validated action permitted for role.
// Any problem yields a *Failure of kind FailureMalformed.
func Decode(text string, role Role) (models.Action, error) {
	raw, err := extractObject(stripFences(text))
	if err != nil {
		return nil, malformed("locate object", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, malformed("decode envelope", err)
	}
	kind := models.ActionKind(strings.ToLower(strings.TrimSpace(env.Action)))
	if !kind.Valid() {
		return nil, malformed(fmt.Sprintf("unknown action %q", env.Action), nil)
	}
	if kind.SupervisorOnly() != (role == RoleSupervisor) {
		return nil, malformed(fmt.Sprintf("action %q not allowed for %s", kind, role), nil)
	}

	action, err := decodeAction(kind, []byte(raw))
	if err != nil {
		return nil, malformed("decode "+string(kind), err)
	}
	if err := action.Validate(); err != nil {
		return nil, malformed("validate "+string(kind), err)
	}
	return action, nil
}

func decodeAction(kind models.ActionKind, raw []byte) (models.Action, error) {
	f := &fields{kind: kind}

	switch kind {
	case models.ActionCreateEvent:
		var w createEventWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		a := models.CreateEvent{
			Title:         f.str("title", w.Title),
			StartTime:     f.str("start_time", w.StartTime),
			DurationHours: f.num("duration_hours", w.DurationHours),
			Description:   optional(w.Description),
		}
		return a, f.err

	case models.ActionListEvents:
		var w listEventsWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return models.ListEvents{LookaheadDays: f.integer("lookahead_days", w.LookaheadDays)}, f.err

	case models.ActionSearchEvents:
		var w searchEventsWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		a := models.SearchEvents{
			Query:     f.str("query", w.Query),
			RangeDays: f.integer("range_days", w.RangeDays),
		}
		return a, f.err

	case models.ActionDeleteEvent:
		var w deleteEventWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return models.DeleteEvent{SearchQuery: f.str("search_query", w.SearchQuery)}, f.err

	case models.ActionCheckAvailability:
		var w checkAvailabilityWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		a := models.CheckAvailability{
			CheckTime:     f.str("check_time", w.CheckTime),
			DurationHours: f.num("duration_hours", w.DurationHours),
		}
		return a, f.err

	case models.ActionAssignTask:
		var w assignTaskWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		a := models.AssignTask{
			TaskTitle:     f.str("task_title", w.TaskTitle),
			TargetTime:    f.str("target_time", w.TargetTime),
			DurationHours: f.num("duration_hours", w.DurationHours),
			Priority:      models.Priority(strings.ToLower(f.str("priority", w.Priority))),
		}
		return a, f.err

	case models.ActionTeamStatus:
		return models.TeamStatus{}, nil

	case models.ActionTeamAvailability:
		var w teamAvailabilityWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		a := models.TeamAvailability{
			TargetTime:    f.str("target_time", w.TargetTime),
			DurationHours: f.num("duration_hours", w.DurationHours),
		}
		return a, f.err

	case models.ActionContactIndividual:
		var w contactIndividualWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		a := models.ContactIndividual{
			TargetName: f.str("target_name", w.TargetName),
			Message:    f.str("message", w.Message),
		}
		return a, f.err
	}

	return nil, fmt.Errorf("unhandled action %q", kind)
}
