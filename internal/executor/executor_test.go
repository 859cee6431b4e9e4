package executor

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/crewcal/internal/calendar/calendartest"
	"github.com/ShayCichocki/crewcal/internal/logging"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

var fixedNow = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

func connected(tz string) models.Identity {
	return models.Identity{
		ID:               "alice",
		Role:             models.RoleEmployee,
		DisplayName:      "Alice",
		Timezone:         tz,
		Status:           models.StatusConnected,
		CredentialHandle: "h-alice",
	}
}

func newExecutor(f *calendartest.Fake) *Executor {
	return New(f, WithClock(func() time.Time { return fixedNow }), WithLogger(logging.Discard()))
}

func TestExecute_NotConnected(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)

	id := connected("UTC")
	id.Status = models.StatusCreated
	id.CredentialHandle = ""

	res := e.Execute(context.Background(), id, models.ListEvents{LookaheadDays: 7})
	if res.Text != NotConnectedMessage {
		t.Errorf("Text = %q", res.Text)
	}
	if !errors.Is(res.Err, ErrNotConnected) {
		t.Errorf("Err = %v", res.Err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("provider was called: %v", f.Calls)
	}
}

func TestExecute_CreateEvent(t *testing.T) {
	tests := []struct {
		name      string
		startTime string
		wantStart time.Time
	}{
		{"iso local", "2025-07-12 14:00", time.Date(2025, 7, 12, 12, 0, 0, 0, time.UTC)},
		{"unparseable falls back to one hour out", "no idea", fixedNow.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := calendartest.New()
			e := newExecutor(f)

			res := e.Execute(context.Background(), connected("Europe/Berlin"), models.CreateEvent{
				Title: "Review", StartTime: tt.startTime, DurationHours: 1.5,
			})
			if res.Err != nil {
				t.Fatalf("Err = %v (%s)", res.Err, res.Text)
			}

			events := f.Events("h-alice")
			if len(events) != 1 {
				t.Fatalf("len(events) = %d", len(events))
			}
			if !events[0].Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", events[0].Start, tt.wantStart)
			}
			if d := events[0].End.Sub(events[0].Start); d != 90*time.Minute {
				t.Errorf("duration = %v", d)
			}
			if !strings.Contains(res.Text, "Review") || !strings.Contains(res.Text, "CEST") {
				t.Errorf("confirmation should name the event and local zone: %q", res.Text)
			}
		})
	}
}

func TestExecute_ListEvents(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)
	ctx := context.Background()

	res := e.Execute(ctx, connected("UTC"), models.ListEvents{LookaheadDays: 7})
	if !strings.Contains(res.Text, "no events") {
		t.Errorf("empty listing = %q", res.Text)
	}

	for i := 0; i < 25; i++ {
		f.Add("h-alice", "Slot", fixedNow.Add(time.Duration(25-i)*time.Hour), 30*time.Minute)
	}
	f.Add("h-alice", "First", fixedNow.Add(30*time.Minute), 10*time.Minute)
	f.Add("h-alice", "Far future", fixedNow.AddDate(0, 0, 30), time.Hour)

	res = e.Execute(ctx, connected("UTC"), models.ListEvents{LookaheadDays: 7})
	lines := strings.Split(res.Text, "\n")
	if got := len(lines) - 1; got != ListLimit {
		t.Errorf("listed %d events, want %d", got, ListLimit)
	}
	if !strings.Contains(lines[1], "First") {
		t.Errorf("events not ordered by start: %q", lines[1])
	}
	if strings.Contains(res.Text, "Far future") {
		t.Error("listing exceeded lookahead window")
	}
}

func TestExecute_SearchEvents(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)
	f.Add("h-alice", "Design review", fixedNow.AddDate(0, 0, -3), time.Hour)
	f.Add("h-alice", "Lunch", fixedNow.AddDate(0, 0, 1), time.Hour)

	res := e.Execute(context.Background(), connected("UTC"), models.SearchEvents{Query: "review", RangeDays: 7})
	if !strings.Contains(res.Text, "Design review") || strings.Contains(res.Text, "Lunch") {
		t.Errorf("search = %q", res.Text)
	}

	res = e.Execute(context.Background(), connected("UTC"), models.SearchEvents{Query: "dentist", RangeDays: 7})
	if !strings.Contains(res.Text, "No events matching") {
		t.Errorf("no-match = %q", res.Text)
	}
}

func TestExecute_DeleteEvent_FirstMatchOnly(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)
	first := f.Add("h-alice", "Standup A", fixedNow.Add(time.Hour), 15*time.Minute)
	f.Add("h-alice", "Standup B", fixedNow.Add(25*time.Hour), 15*time.Minute)

	res := e.Execute(context.Background(), connected("UTC"), models.DeleteEvent{SearchQuery: "standup"})
	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	if len(f.Deleted) != 1 || f.Deleted[0] != first.ID {
		t.Errorf("Deleted = %v, want only %s", f.Deleted, first.ID)
	}
	if !strings.Contains(res.Text, "Standup A") {
		t.Errorf("Text = %q", res.Text)
	}
	if left := f.Events("h-alice"); len(left) != 1 || left[0].Title != "Standup B" {
		t.Errorf("remaining = %+v", left)
	}

	res = e.Execute(context.Background(), connected("UTC"), models.DeleteEvent{SearchQuery: "party"})
	if !strings.Contains(res.Text, "No event matching") || len(f.Deleted) != 1 {
		t.Errorf("no-match delete = %q", res.Text)
	}
}

func TestExecute_CheckAvailability(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)
	at := time.Date(2025, 7, 12, 14, 0, 0, 0, time.UTC)
	f.Add("h-alice", "A", at.Add(-30*time.Minute), time.Hour)
	f.Add("h-alice", "B", at.Add(30*time.Minute), time.Hour)
	f.Add("h-alice", "Adjacent", at.Add(2*time.Hour), time.Hour)

	busy := e.Execute(context.Background(), connected("UTC"), models.CheckAvailability{CheckTime: "2025-07-12 14:00", DurationHours: 2})
	if busy.Availability == nil || *busy.Availability != models.Busy(2) {
		t.Fatalf("Availability = %v, want busy(2)", busy.Availability)
	}
	if strings.Contains(busy.Text, AvailabilityMarkerFree) {
		t.Errorf("busy reply contains the free marker: %q", busy.Text)
	}

	free := e.Execute(context.Background(), connected("UTC"), models.CheckAvailability{CheckTime: "2025-07-12 09:00", DurationHours: 1})
	if free.Availability == nil || !free.Availability.Free {
		t.Fatalf("Availability = %v, want free", free.Availability)
	}
	if !strings.Contains(free.Text, AvailabilityMarkerFree) {
		t.Errorf("free reply missing marker: %q", free.Text)
	}
}

func TestExecute_RejectsOutOfRangeDuration(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)
	at := time.Date(2025, 7, 12, 14, 0, 0, 0, time.UTC)
	f.Add("h-alice", "Standup", at, time.Hour)

	for _, d := range []float64{1e300, math.Inf(1), math.NaN(), models.MaxDurationHours + 1} {
		res := e.Execute(context.Background(), connected("UTC"), models.CheckAvailability{CheckTime: "2025-07-12 14:00", DurationHours: d})
		if res.Err == nil {
			t.Errorf("duration %v: Err = nil, want rejection", d)
		}
		if res.Availability != nil {
			t.Errorf("duration %v: Availability = %v, want unset", d, res.Availability)
		}
		if strings.Contains(res.Text, AvailabilityMarkerFree) {
			t.Errorf("duration %v: busy window reported free: %q", d, res.Text)
		}
	}

	if len(f.Events("h-alice")) != 1 {
		t.Fatal("calendar should be untouched")
	}
	res := e.Execute(context.Background(), connected("UTC"), models.CreateEvent{Title: "Forever", StartTime: "2025-07-12 10:00", DurationHours: 1e300})
	if res.Err == nil {
		t.Errorf("CreateEvent with huge duration: Err = nil")
	}
	if len(f.Events("h-alice")) != 1 {
		t.Error("oversized event should not be created")
	}
}

func TestExecute_ProviderFailure(t *testing.T) {
	f := calendartest.New()
	f.Err = errors.New("quota exceeded")
	e := newExecutor(f)

	actions := []models.Action{
		models.CreateEvent{Title: "x", StartTime: "2025-07-12 10:00", DurationHours: 1},
		models.ListEvents{LookaheadDays: 1},
		models.SearchEvents{Query: "x", RangeDays: 1},
		models.DeleteEvent{SearchQuery: "x"},
		models.CheckAvailability{CheckTime: "2025-07-12 10:00", DurationHours: 1},
	}
	for _, a := range actions {
		t.Run(string(a.Kind()), func(t *testing.T) {
			res := e.Execute(context.Background(), connected("UTC"), a)
			if !strings.HasPrefix(res.Text, FailurePrefix) {
				t.Errorf("Text = %q, want failure prefix", res.Text)
			}
			if !strings.Contains(res.Text, "quota exceeded") {
				t.Errorf("Text should carry the provider error: %q", res.Text)
			}
			if res.Availability != nil {
				t.Error("Availability should be unset on failure")
			}
		})
	}
}

func TestExecute_SupervisorOnlyRejected(t *testing.T) {
	f := calendartest.New()
	e := newExecutor(f)
	res := e.Execute(context.Background(), connected("UTC"), models.TeamStatus{})
	if res.Text != SupervisorOnlyMessage || res.Err == nil {
		t.Errorf("res = %+v", res)
	}
}
