// Package calendartest provides an in-memory calendar provider for tests.
package calendartest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/crewcal/internal/calendar"
)

// Fake is an in-memory calendar.Provider. Err, when set, fails every call.
type Fake struct {
	mu     sync.Mutex
	events map[string][]calendar.Event
	seq    int

	Err error
	// FailFor fails every call made with the given handle.
	FailFor map[string]error
	// Calls counts provider calls per method name.
	Calls map[string]int
	// Deleted records deleted event IDs in order.
	Deleted []string
}

// New creates an empty fake.
func New() *Fake {
	return &Fake{events: make(map[string][]calendar.Event), Calls: make(map[string]int)}
}

// Add stores an event for handle directly and returns it with its ID.
func (f *Fake) Add(handle, title string, start time.Time, d time.Duration) calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(handle, calendar.Event{Title: title, Start: start, End: start.Add(d)})
}

// Events returns a copy of handle's events ordered by start.
func (f *Fake) Events(handle string) []calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]calendar.Event(nil), f.events[handle]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// CallCount returns how many times method was called.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *Fake) add(handle string, ev calendar.Event) calendar.Event {
	f.seq++
	ev.ID = fmt.Sprintf("evt-%d", f.seq)
	f.events[handle] = append(f.events[handle], ev)
	return ev
}

func (f *Fake) enter(method, handle string) error {
	f.Calls[method]++
	if err, ok := f.FailFor[handle]; ok {
		return err
	}
	return f.Err
}

func (f *Fake) window(handle string, from, to time.Time) []calendar.Event {
	var out []calendar.Event
	for _, ev := range f.events[handle] {
		if ev.Overlaps(from, to) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (f *Fake) CreateEvent(_ context.Context, handle string, ev calendar.Event) (calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateEvent", handle); err != nil {
		return calendar.Event{}, err
	}
	return f.add(handle, ev), nil
}

func (f *Fake) ListEvents(_ context.Context, handle string, from, to time.Time, limit int) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListEvents", handle); err != nil {
		return nil, err
	}
	out := f.window(handle, from, to)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) SearchEvents(_ context.Context, handle, query string, from, to time.Time) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SearchEvents", handle); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []calendar.Event
	for _, ev := range f.window(handle, from, to) {
		if strings.Contains(strings.ToLower(ev.Title+" "+ev.Description), q) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *Fake) DeleteEvent(_ context.Context, handle, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteEvent", handle); err != nil {
		return err
	}
	events := f.events[handle]
	for i, ev := range events {
		if ev.ID == eventID {
			f.events[handle] = append(events[:i:i], events[i+1:]...)
			f.Deleted = append(f.Deleted, eventID)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", calendar.ErrEventNotFound, eventID)
}

func (f *Fake) FreeBusy(_ context.Context, handle string, from, to time.Time) ([]calendar.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FreeBusy", handle); err != nil {
		return nil, err
	}
	var out []calendar.Interval
	for _, ev := range f.window(handle, from, to) {
		out = append(out, calendar.Interval{Start: ev.Start, End: ev.End})
	}
	return out, nil
}

var _ calendar.Provider = (*Fake)(nil)
