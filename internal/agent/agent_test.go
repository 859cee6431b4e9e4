package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/crewcal/internal/calendar/calendartest"
	"github.com/ShayCichocki/crewcal/internal/directory"
	"github.com/ShayCichocki/crewcal/internal/executor"
	"github.com/ShayCichocki/crewcal/internal/intent"
	"github.com/ShayCichocki/crewcal/internal/logging"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

var fixedNow = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

type memDirectory struct {
	mu      sync.Mutex
	records map[string]models.Identity
	order   []string
	reads   int
	marked  []string
}

func newMemDirectory(ids ...models.Identity) *memDirectory {
	d := &memDirectory{records: make(map[string]models.Identity)}
	for _, id := range ids {
		d.put(id)
	}
	return d
}

func (d *memDirectory) put(id models.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.records[id.ID]; !ok {
		d.order = append(d.order, id.ID)
	}
	d.records[id.ID] = id
}

func (d *memDirectory) GetIdentity(id string) (models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	rec, ok := d.records[id]
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: %s", directory.ErrNotFound, id)
	}
	return rec, nil
}

func (d *memDirectory) ListIdentities(role models.Role) ([]models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Identity
	for _, id := range d.order {
		if role == "" || d.records[id].Role == role {
			out = append(out, d.records[id])
		}
	}
	return out, nil
}

func (d *memDirectory) MarkCreated(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.records[id]
	rec.Status = models.StatusCreated
	d.records[id] = rec
	d.marked = append(d.marked, id)
	return nil
}

type stubParser struct {
	action models.Action
	err    error
	calls  int
	last   intent.Context
}

func (p *stubParser) Parse(_ context.Context, _ string, pc intent.Context) (models.Action, error) {
	p.calls++
	p.last = pc
	return p.action, p.err
}

func employee(id string, status models.ConnectionStatus) models.Identity {
	i := models.Identity{ID: id, Role: models.RoleEmployee, DisplayName: strings.ToUpper(id), Timezone: "UTC", Status: status}
	if status == models.StatusConnected {
		i.CredentialHandle = "h-" + id
	}
	return i
}

type fixture struct {
	dir      *memDirectory
	parser   *stubParser
	calendar *calendartest.Fake
	reg      *Registry
}

func newFixture(ids ...models.Identity) *fixture {
	f := &fixture{
		dir:      newMemDirectory(ids...),
		parser:   &stubParser{},
		calendar: calendartest.New(),
	}
	f.reg = NewRegistry(Config{
		Directory: f.dir,
		Activator: f.dir,
		Parser:    f.parser,
		Executor: executor.New(f.calendar,
			executor.WithClock(func() time.Time { return fixedNow }),
			executor.WithLogger(logging.Discard())),
		Clock:  func() time.Time { return fixedNow },
		Logger: logging.Discard(),
	})
	return f
}

func TestNewAgentID(t *testing.T) {
	id := NewAgentID("u42")
	assert.Regexp(t, regexp.MustCompile(`^agent_u42_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewAgentID("u42"))
}

func TestChat_NotConnectedSkipsParser(t *testing.T) {
	f := newFixture(employee("amy", models.StatusCreated))
	a, err := f.reg.Scope().Assistant("amy")
	require.NoError(t, err)

	assert.Equal(t, ConnectPrompt, a.Chat(context.Background(), "what's on today?"))
	assert.Zero(t, f.parser.calls)
}

func TestChat_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"malformed", &intent.Failure{Kind: intent.FailureMalformed, Reason: "no object"}, ClarifyMessage},
		{"unreachable", &intent.Failure{Kind: intent.FailureUnreachable, Reason: "timeout"}, TryAgainMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(employee("amy", models.StatusConnected))
			f.parser.err = tt.err
			a, err := f.reg.Scope().Assistant("amy")
			require.NoError(t, err)

			assert.Equal(t, tt.want, a.Chat(context.Background(), "blah"))
			assert.Zero(t, f.calendar.CallCount("ListEvents"))
		})
	}
}

func TestChat_ExecutesAction(t *testing.T) {
	f := newFixture(employee("amy", models.StatusConnected))
	f.parser.action = models.CreateEvent{Title: "Sync", StartTime: "2025-07-11 09:00", DurationHours: 1}
	a, err := f.reg.Scope().Assistant("amy")
	require.NoError(t, err)

	reply := a.Chat(context.Background(), "sync tomorrow 9am")
	assert.Contains(t, reply, "Sync")
	require.Len(t, f.calendar.Events("h-amy"), 1)
	assert.Equal(t, "UTC", f.parser.last.Timezone)
	assert.Equal(t, fixedNow, f.parser.last.Now)
}

func TestDialogue_SurvivesScopes(t *testing.T) {
	f := newFixture(employee("amy", models.StatusConnected))
	f.parser.action = models.ListEvents{LookaheadDays: 7}

	for i := 0; i < 7; i++ {
		a, err := f.reg.Scope().Assistant("amy")
		require.NoError(t, err)
		a.Chat(context.Background(), fmt.Sprintf("msg %d", i))
	}

	history := f.reg.Dialogue().History("amy")
	require.Len(t, history, DefaultDialogueLimit)
	assert.Equal(t, "msg 2", history[0].Text)
	assert.Len(t, f.parser.last.History, DefaultDialogueLimit)

	a, _ := f.reg.Scope().Assistant("amy")
	assert.Equal(t, DefaultDialogueLimit, a.Info().ConversationLength)
}

func TestScope_RefetchesIdentityPerScope(t *testing.T) {
	f := newFixture(employee("amy", models.StatusCreated))

	first, err := f.reg.Scope().Assistant("amy")
	require.NoError(t, err)
	assert.False(t, first.Info().CalendarConnected)

	f.dir.put(employee("amy", models.StatusConnected))

	second, err := f.reg.Scope().Assistant("amy")
	require.NoError(t, err)
	assert.True(t, second.Info().CalendarConnected)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestScope_CachesWithinCall(t *testing.T) {
	f := newFixture(employee("amy", models.StatusConnected))
	scope := f.reg.Scope()

	var wg sync.WaitGroup
	got := make([]*Assistant, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := scope.Assistant("amy")
			assert.NoError(t, err)
			got[i] = a
		}(i)
	}
	wg.Wait()

	for _, a := range got {
		assert.Same(t, got[0], a)
	}
	assert.Equal(t, 1, f.dir.reads)
}

func TestScope_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.reg.Scope().Assistant("ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestScope_ActivatesNewIdentity(t *testing.T) {
	f := newFixture(employee("amy", models.StatusNone))
	var events []LifecycleEventType
	f.reg.OnEvent(func(ev LifecycleEvent) { events = append(events, ev.Type) })

	a, err := f.reg.Scope().Assistant("amy")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCreated, a.Identity().Status)
	assert.Equal(t, []string{"amy"}, f.dir.marked)
	assert.Equal(t, []LifecycleEventType{LifecycleEventActivated, LifecycleEventCreated}, events)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(employee("amy", models.StatusConnected), employee("bo", models.StatusCreated))
	at := time.Date(2025, 7, 12, 14, 0, 0, 0, time.UTC)
	f.calendar.Add("h-amy", "Busy", at, time.Hour)
	scope := f.reg.Scope()

	amy, _ := scope.Assistant("amy")
	avail, err := amy.CheckAvailability(context.Background(), at, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Busy(1), avail)

	avail, err = amy.CheckAvailability(context.Background(), at.Add(2*time.Hour), 1)
	require.NoError(t, err)
	assert.True(t, avail.Free)

	bo, _ := scope.Assistant("bo")
	_, err = bo.CheckAvailability(context.Background(), at, 1)
	assert.ErrorIs(t, err, executor.ErrNotConnected)
}

func TestPerform(t *testing.T) {
	f := newFixture(employee("amy", models.StatusConnected))
	a, _ := f.reg.Scope().Assistant("amy")

	res := a.Perform(context.Background(), models.CreateEvent{Title: "Deploy", StartTime: "2025-07-12 14:00", DurationHours: 2})
	require.NoError(t, res.Err)
	assert.Len(t, f.calendar.Events("h-amy"), 1)
	assert.Zero(t, f.parser.calls)

	res = a.Perform(context.Background(), models.CreateEvent{Title: "", StartTime: "x", DurationHours: 1})
	assert.ErrorIs(t, res.Err, models.ErrMissingField)
}
