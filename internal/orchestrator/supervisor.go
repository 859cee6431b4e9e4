package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShayCichocki/crewcal/internal/agent"
	"github.com/ShayCichocki/crewcal/internal/executor"
	"github.com/ShayCichocki/crewcal/internal/intent"
	"github.com/ShayCichocki/crewcal/internal/timeparse"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Fixed replies.
const (
	NoSuitableTimezoneMessage = "No team members are in a suitable timezone for that time right now."
	AllBusyMessage            = "Everyone in a suitable timezone is busy at that time."
	NoConnectedMessage        = "No team members have connected their calendars yet."
	RejectMessage             = "Sorry, I didn't understand that directive. Try something like:\n" +
		"• \"Assign the quarterly report to someone tomorrow at 14:00 for 2 hours, high priority\"\n" +
		"• \"How is the team doing?\"\n" +
		"• \"Who is free Friday at 10am?\"\n" +
		"• \"Tell Alice the standup moved to 11\""
)

// State is a step of directive handling: Received, then Parsed or Rejected,
// then Completed.
type State string

const (
	StateReceived  State = "received"
	StateParsed    State = "parsed"
	StateRejected  State = "rejected"
	StateCompleted State = "completed"
)

// Options configures a Supervisor.
type Options struct {
	Filter  Filter
	Prober  Prober
	Emitter *EventEmitter
	Logger  *slog.Logger
}

// Supervisor turns directives into workflows over the assistants of one scope.
type Supervisor struct {
	info    models.Agent
	boss    models.Supervisor
	scope   *agent.Scope
	parser  agent.Parser
	filter  Filter
	prober  Prober
	emitter *EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewSupervisor binds boss to scope. The scope's registry supplies the clock
// and dialogue store.
func NewSupervisor(scope *agent.Scope, boss models.Supervisor, parser agent.Parser, opts Options) *Supervisor {
	reg := scope.Registry()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Filter.Now == nil {
		opts.Filter.Now = reg.Clock()
	}
	if opts.Prober.Logger == nil {
		opts.Prober.Logger = logger
	}

	return &Supervisor{
		info: models.Agent{
			ID:                agent.NewAgentID(boss.ID),
			IdentityID:        boss.ID,
			Role:              models.RoleSupervisor,
			Status:            boss.Status,
			CalendarConnected: boss.Connected(),
			CreatedAt:         reg.Clock()(),
		},
		boss:    boss,
		scope:   scope,
		parser:  parser,
		filter:  opts.Filter,
		prober:  opts.Prober,
		emitter: opts.Emitter,
		logger:  logger.With("supervisor", boss.ID),
		now:     reg.Clock(),
	}
}

// Info describes the supervisor agent.
func (s *Supervisor) Info() models.Agent {
	info := s.info
	info.ConversationLength = s.scope.Registry().Dialogue().Len(s.boss.ID)
	return info
}

// Chat handles one directive. It always returns a reply.
func (s *Supervisor) Chat(ctx context.Context, message string) string {
	reply := s.handle(ctx, message)
	s.scope.Registry().Dialogue().Append(s.boss.ID,
		intent.Turn{Speaker: "user", Text: message},
		intent.Turn{Speaker: "assistant", Text: reply},
	)
	return reply
}

func (s *Supervisor) transition(state State, attrs ...any) {
	s.logger.Info("supervisor state", append([]any{"state", state}, attrs...)...)
	s.emitter.Emit(WorkflowEvent{
		Type:         EventStateChanged,
		SupervisorID: s.boss.ID,
		State:        state,
		Timestamp:    s.now(),
	})
}

func (s *Supervisor) handle(ctx context.Context, message string) string {
	s.transition(StateReceived)

	action, err := s.parser.Parse(ctx, message, intent.Context{
		Timezone: s.boss.Location().String(),
		Now:      s.now(),
		History:  s.scope.Registry().Dialogue().History(s.boss.ID),
	})
	if err != nil {
		s.transition(StateRejected, "error", err)
		if intent.IsUnreachable(err) {
			return agent.TryAgainMessage
		}
		return RejectMessage
	}
	s.transition(StateParsed, "action", action.Kind())

	reply := s.dispatch(ctx, action)
	s.transition(StateCompleted, "action", action.Kind())
	return reply
}

func (s *Supervisor) dispatch(ctx context.Context, action models.Action) string {
	switch a := action.(type) {
	case models.AssignTask:
		return s.assignTask(ctx, a)
	case models.TeamStatus:
		return s.teamStatus()
	case models.TeamAvailability:
		return s.teamAvailability(ctx, a)
	case models.ContactIndividual:
		return s.contactIndividual(ctx, a)
	}
	return RejectMessage
}

func (s *Supervisor) failure(what string, err error) string {
	s.logger.Warn("supervisor step failed", "step", what, "error", err)
	return fmt.Sprintf("%s %s: %v", executor.FailurePrefix, what, err)
}

func (s *Supervisor) assignTask(ctx context.Context, a models.AssignTask) string {
	employees, err := s.scope.Employees()
	if err != nil {
		return s.failure("load the team", err)
	}

	loc := s.boss.Location()
	candidates := s.filter.Apply(employees, a.TargetTime, loc)
	s.logger.Info("candidates filtered", "target_time", a.TargetTime, "employees", len(employees), "candidates", len(candidates))
	s.emitter.Emit(WorkflowEvent{
		Type:         EventCandidatesFiltered,
		SupervisorID: s.boss.ID,
		Message:      fmt.Sprintf("%d of %d team members in a matching shift", len(candidates), len(employees)),
	})
	if len(candidates) == 0 {
		return NoSuitableTimezoneMessage
	}

	at, err := timeparse.Resolve(a.TargetTime, loc, s.now())
	if err != nil {
		return s.failure("read the target time", err)
	}

	results := s.prober.Probe(ctx, s.scope, candidates, at, a.DurationHours)
	s.emitProbes(results)

	chosen, ok := FirstFree(results)
	if !ok {
		return AllBusyMessage
	}

	assistant, err := s.scope.Assistant(chosen.Identity.ID)
	if err != nil {
		return s.failure("reach "+chosen.Identity.DisplayName, err)
	}

	org := s.boss.Title()
	if s.boss.Company != "" {
		org += ", " + s.boss.Company
	}
	res := assistant.Perform(ctx, models.CreateEvent{
		Title:         a.TaskTitle,
		StartTime:     at.Format(time.RFC3339),
		DurationHours: a.DurationHours,
		Description:   fmt.Sprintf("Assigned by %s (%s). Priority: %s.", s.boss.DisplayName, org, a.Priority),
	})
	if res.Err != nil {
		return s.failure(fmt.Sprintf("assign %q to %s", a.TaskTitle, chosen.Identity.DisplayName), res.Err)
	}

	s.logger.Info("task delegated", "identity", chosen.Identity.ID, "task", a.TaskTitle)
	s.emitter.Emit(WorkflowEvent{
		Type:         EventDelegated,
		SupervisorID: s.boss.ID,
		IdentityID:   chosen.Identity.ID,
		Message:      a.TaskTitle,
	})

	return fmt.Sprintf("Assigned %q to %s (%s priority).\n%s's assistant: %s",
		a.TaskTitle, chosen.Identity.DisplayName, a.Priority, chosen.Identity.DisplayName, res.Text)
}

func (s *Supervisor) emitProbes(results []models.ProbeResult) {
	for _, r := range results {
		msg := r.Availability.String()
		if r.Err != nil {
			msg = "unavailable"
		}
		s.emitter.Emit(WorkflowEvent{
			Type:         EventProbeCompleted,
			SupervisorID: s.boss.ID,
			IdentityID:   r.Identity.ID,
			Message:      msg,
			Error:        r.Err,
		})
	}
}

func (s *Supervisor) teamStatus() string {
	employees, err := s.scope.Employees()
	if err != nil {
		return s.failure("load the team", err)
	}
	return Summarize(employees, s.now()).Render()
}

func (s *Supervisor) teamAvailability(ctx context.Context, a models.TeamAvailability) string {
	employees, err := s.scope.Employees()
	if err != nil {
		return s.failure("load the team", err)
	}

	var connected []models.Identity
	for _, e := range employees {
		if e.Status == models.StatusConnected {
			connected = append(connected, e)
		}
	}
	if len(connected) == 0 {
		return NoConnectedMessage
	}

	loc := s.boss.Location()
	at, err := timeparse.Resolve(a.TargetTime, loc, s.now())
	if err != nil {
		return s.failure("read the target time", err)
	}

	results := s.prober.Probe(ctx, s.scope, connected, at, a.DurationHours)
	s.emitProbes(results)
	return RenderAvailability(results, at.In(loc), a.DurationHours)
}

func (s *Supervisor) contactIndividual(ctx context.Context, a models.ContactIndividual) string {
	employees, err := s.scope.Employees()
	if err != nil {
		return s.failure("load the team", err)
	}

	target, ok := MatchName(employees, a.TargetName)
	if !ok {
		return fmt.Sprintf("I couldn't find a team member matching %q.", a.TargetName)
	}

	assistant, err := s.scope.Assistant(target.ID)
	if err != nil {
		return s.failure("reach "+target.DisplayName, err)
	}

	s.emitter.Emit(WorkflowEvent{
		Type:         EventDelegated,
		SupervisorID: s.boss.ID,
		IdentityID:   target.ID,
		Message:      a.Message,
	})
	reply := assistant.Chat(ctx, a.Message)
	return fmt.Sprintf("Message relayed to %s. Their assistant replied:\n%s", target.DisplayName, reply)
}

// MatchName returns the first identity whose display name contains name,
// ignoring case.
func MatchName(identities []models.Identity, name string) (models.Identity, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return models.Identity{}, false
	}
	for _, id := range identities {
		if strings.Contains(strings.ToLower(id.DisplayName), needle) {
			return id, true
		}
	}
	return models.Identity{}, false
}
