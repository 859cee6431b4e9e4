package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/crewcal/internal/agent"
	"github.com/ShayCichocki/crewcal/internal/calendar/calendartest"
	"github.com/ShayCichocki/crewcal/internal/directory"
	"github.com/ShayCichocki/crewcal/internal/executor"
	"github.com/ShayCichocki/crewcal/internal/intent"
	"github.com/ShayCichocki/crewcal/internal/logging"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// 12:00 UTC: Berlin 14:00 (day), New York 08:00 (day), Tokyo 21:00 (night),
// Los Angeles 05:00 (night).
var fixedNow = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

type memDirectory struct {
	mu      sync.Mutex
	records map[string]models.Identity
	order   []string
}

func (d *memDirectory) GetIdentity(id string) (models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
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

type stubParser struct {
	mu     sync.Mutex
	action models.Action
	err    error
	calls  int
}

func (p *stubParser) Parse(context.Context, string, intent.Context) (models.Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.action, p.err
}

func member(id, name, tz string, status models.ConnectionStatus) models.Identity {
	i := models.Identity{ID: id, Role: models.RoleEmployee, DisplayName: name, Timezone: tz, Status: status}
	if status == models.StatusConnected {
		i.CredentialHandle = "h-" + id
	}
	return i
}

type fixture struct {
	dir        *memDirectory
	calendar   *calendartest.Fake
	assistants *stubParser
	directives *stubParser
	reg        *agent.Registry
	boss       models.Supervisor
}

func newFixture(members ...models.Identity) *fixture {
	f := &fixture{
		dir:        &memDirectory{records: make(map[string]models.Identity)},
		calendar:   calendartest.New(),
		assistants: &stubParser{action: models.ListEvents{LookaheadDays: 7}},
		directives: &stubParser{},
		boss: models.Supervisor{
			Identity: models.Identity{ID: "boss", Role: models.RoleSupervisor, DisplayName: "Bo Boss", Timezone: "UTC", Status: models.StatusCreated},
			Company:  "Acme",
		},
	}
	for _, m := range members {
		f.dir.records[m.ID] = m
		f.dir.order = append(f.dir.order, m.ID)
	}
	clock := func() time.Time { return fixedNow }
	f.reg = agent.NewRegistry(agent.Config{
		Directory: f.dir,
		Parser:    f.assistants,
		Executor: executor.New(f.calendar,
			executor.WithClock(clock),
			executor.WithLogger(logging.Discard())),
		Clock:  clock,
		Logger: logging.Discard(),
	})
	return f
}

func (f *fixture) supervisor(action models.Action, opts Options) *Supervisor {
	f.directives.action = action
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return NewSupervisor(f.reg.Scope(), f.boss, f.directives, opts)
}
