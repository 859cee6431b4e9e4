// Package calendar provides the calendar providers behind the executor:
// Google Calendar through OAuth credentials, and a local SQLite store that can
// be seeded from ICS files.
package calendar

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrEventNotFound is returned when deleting an event ID the calendar doesn't hold.
var ErrEventNotFound = errors.New("event not found")

// ErrOutOfRange is returned for events the local store cannot order correctly.
var ErrOutOfRange = errors.New("event time outside years 0001-9999")

// Event is a calendar entry. Start and End are absolute instants.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// Overlaps reports whether the event intersects [from, to).
func (e Event) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && e.End.After(from)
}

// Interval is a busy period.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Provider is the calendar backend contract. Every call carries the opaque
// credential handle of the identity whose calendar it touches.
type Provider interface {
	// CreateEvent stores ev and returns it with its provider ID set.
	CreateEvent(ctx context.Context, handle string, ev Event) (Event, error)
	// ListEvents returns events overlapping [from, to) ordered by start,
	// at most limit of them when limit > 0.
	ListEvents(ctx context.Context, handle string, from, to time.Time, limit int) ([]Event, error)
	// SearchEvents returns events overlapping [from, to) whose title or
	// description contains query, ordered by start.
	SearchEvents(ctx context.Context, handle, query string, from, to time.Time) ([]Event, error)
	// DeleteEvent removes one event by ID.
	DeleteEvent(ctx context.Context, handle, eventID string) error
	// FreeBusy returns the busy intervals overlapping [from, to). Providers
	// differ on overlap: the local store returns one interval per event,
	// Google returns merged busy periods.
	FreeBusy(ctx context.Context, handle string, from, to time.Time) ([]Interval, error)
}

func sortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}

// LocalHandle is the credential handle of an identity's local calendar.
func LocalHandle(identityID string) string {
	return "local:" + identityID
}

// GoogleHandle is the credential handle under which an identity's Google
// token is stored.
func GoogleHandle(identityID string) string {
	return "google:" + identityID
}
