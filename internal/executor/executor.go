// Package executor runs structured calendar actions against a calendar
// provider on behalf of one identity and renders the outcome as chat text.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShayCichocki/crewcal/internal/calendar"
	"github.com/ShayCichocki/crewcal/internal/timeparse"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Fixed replies.
const (
	NotConnectedMessage = "Your calendar isn't connected yet. Run `crewcal calendar connect` to link it, then ask me again."
	// FailurePrefix starts every reply caused by a provider error.
	FailurePrefix = "Sorry, I couldn't"
	// AvailabilityMarkerFree appears verbatim in the reply only when the
	// checked window is free.
	AvailabilityMarkerFree = "FREE"
	SupervisorOnlyMessage  = "That request needs a supervisor agent. I can only manage your own calendar."
)

// ListLimit caps how many events a listing shows.
const ListLimit = 20

// DeleteWindowDays bounds how far around now a delete searches for its match.
const DeleteWindowDays = 30

// ErrNotConnected is set on results for identities without a calendar.
var ErrNotConnected = errors.New("calendar not connected")

// Result is the outcome of one action.
type Result struct {
	// Text is the reply shown to the user.
	Text string
	// Availability is set when a CheckAvailability completed.
	Availability *models.Availability
	// Err is the underlying failure, if any. Text already describes it.
	Err error
}

// Executor executes actions against a calendar provider.
type Executor struct {
	provider calendar.Provider
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithLogger sets the logger used for provider failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor over provider.
func New(provider calendar.Provider, opts ...Option) *Executor {
	e := &Executor{
		provider: provider,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs action for identity. It never returns an empty Text.
func (e *Executor) Execute(ctx context.Context, identity models.Identity, action models.Action) Result {
	if !identity.Connected() {
		return Result{Text: NotConnectedMessage, Err: ErrNotConnected}
	}

	loc := identity.Location()
	now := e.now().In(loc)
	handle := identity.CredentialHandle

	if action != nil && !action.Kind().SupervisorOnly() {
		if err := action.Validate(); err != nil {
			return Result{Text: fmt.Sprintf("Sorry, I can't do that: %v", err), Err: err}
		}
	}

	switch a := action.(type) {
	case models.CreateEvent:
		return e.createEvent(ctx, handle, a, loc, now)
	case models.ListEvents:
		return e.listEvents(ctx, handle, a, loc, now)
	case models.SearchEvents:
		return e.searchEvents(ctx, handle, a, loc, now)
	case models.DeleteEvent:
		return e.deleteEvent(ctx, handle, a, now)
	case models.CheckAvailability:
		return e.checkAvailability(ctx, handle, a, loc, now)
	}

	if action != nil && action.Kind().SupervisorOnly() {
		return Result{Text: SupervisorOnlyMessage, Err: fmt.Errorf("action %s not executable on a calendar", action.Kind())}
	}
	return Result{Text: "Sorry, I don't know how to do that.", Err: fmt.Errorf("unsupported action %T", action)}
}

func (e *Executor) failure(what string, err error) Result {
	e.logger.Warn("calendar action failed", "action", what, "error", err)
	return Result{Text: fmt.Sprintf("%s %s: %v", FailurePrefix, what, err), Err: err}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func (e *Executor) createEvent(ctx context.Context, handle string, a models.CreateEvent, loc *time.Location, now time.Time) Result {
	start, err := timeparse.Resolve(a.StartTime, loc, now)
	if err != nil {
		e.logger.Debug("start time unparseable, scheduling one hour out", "start_time", a.StartTime, "error", err)
		start = now.Add(time.Hour)
	}

	ev, err := e.provider.CreateEvent(ctx, handle, calendar.Event{
		Title:       a.Title,
		Description: a.Description,
		Start:       start,
		End:         start.Add(hours(a.DurationHours)),
	})
	if err != nil {
		return e.failure("create the event", err)
	}

	return Result{Text: fmt.Sprintf("Created %q on %s for %s.",
		ev.Title, timeparse.Format(start.In(loc)), formatDuration(a.DurationHours))}
}

func (e *Executor) listEvents(ctx context.Context, handle string, a models.ListEvents, loc *time.Location, now time.Time) Result {
	events, err := e.provider.ListEvents(ctx, handle, now, now.AddDate(0, 0, a.LookaheadDays), ListLimit)
	if err != nil {
		return e.failure("list your events", err)
	}
	if len(events) > ListLimit {
		events = events[:ListLimit]
	}
	if len(events) == 0 {
		return Result{Text: fmt.Sprintf("You have no events in the next %s.", plural(a.LookaheadDays, "day"))}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your events in the next %s:\n", plural(a.LookaheadDays, "day"))
	writeEvents(&b, events, loc)
	return Result{Text: strings.TrimRight(b.String(), "\n")}
}

func (e *Executor) searchEvents(ctx context.Context, handle string, a models.SearchEvents, loc *time.Location, now time.Time) Result {
	events, err := e.provider.SearchEvents(ctx, handle, a.Query,
		now.AddDate(0, 0, -a.RangeDays), now.AddDate(0, 0, a.RangeDays))
	if err != nil {
		return e.failure("search your events", err)
	}
	if len(events) == 0 {
		return Result{Text: fmt.Sprintf("No events matching %q.", a.Query)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Events matching %q:\n", a.Query)
	writeEvents(&b, events, loc)
	return Result{Text: strings.TrimRight(b.String(), "\n")}
}

// deleteEvent removes only the first match.
func (e *Executor) deleteEvent(ctx context.Context, handle string, a models.DeleteEvent, now time.Time) Result {
	events, err := e.provider.SearchEvents(ctx, handle, a.SearchQuery,
		now.AddDate(0, 0, -DeleteWindowDays), now.AddDate(0, 0, DeleteWindowDays))
	if err != nil {
		return e.failure("find the event to delete", err)
	}
	if len(events) == 0 {
		return Result{Text: fmt.Sprintf("No event matching %q to delete.", a.SearchQuery)}
	}

	target := events[0]
	if err := e.provider.DeleteEvent(ctx, handle, target.ID); err != nil {
		return e.failure(fmt.Sprintf("delete %q", target.Title), err)
	}
	return Result{Text: fmt.Sprintf("Deleted %q.", target.Title)}
}

func (e *Executor) checkAvailability(ctx context.Context, handle string, a models.CheckAvailability, loc *time.Location, now time.Time) Result {
	start, err := timeparse.Resolve(a.CheckTime, loc, now)
	if err != nil {
		return Result{
			Text: fmt.Sprintf("%s read the time %q. Try something like \"tomorrow at 3pm\".", FailurePrefix, a.CheckTime),
			Err:  err,
		}
	}
	end := start.Add(hours(a.DurationHours))

	busy, err := e.provider.FreeBusy(ctx, handle, start, end)
	if err != nil {
		return e.failure("check your availability", err)
	}

	// Busy(n) counts busy intervals, which on Google are merged periods.
	conflicts := 0
	for _, iv := range busy {
		if iv.Start.Before(end) && iv.End.After(start) {
			conflicts++
		}
	}

	window := fmt.Sprintf("%s to %s", timeparse.Format(start.In(loc)), end.In(loc).Format("3:04 PM"))
	if conflicts == 0 {
		avail := models.Free()
		return Result{
			Text:         fmt.Sprintf("%s: nothing scheduled from %s.", AvailabilityMarkerFree, window),
			Availability: &avail,
		}
	}
	avail := models.Busy(conflicts)
	return Result{
		Text:         fmt.Sprintf("Busy: %s overlapping %s.", plural(conflicts, "event"), window),
		Availability: &avail,
	}
}

func writeEvents(b *strings.Builder, events []calendar.Event, loc *time.Location) {
	for _, ev := range events {
		if ev.AllDay {
			fmt.Fprintf(b, "• %s (all day %s)\n", ev.Title, ev.Start.In(loc).Format("Mon Jan 2"))
			continue
		}
		fmt.Fprintf(b, "• %s at %s\n", ev.Title, timeparse.Format(ev.Start.In(loc)))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatDuration(h float64) string {
	d := hours(h).Round(time.Minute)
	if d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	return strings.TrimSuffix(d.String(), "0s")
}
