package agent

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ShayCichocki/crewcal/internal/directory"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Activator is implemented by directories that record agent creation.
type Activator interface {
	MarkCreated(id string) error
}

// Config holds the collaborators of a Registry.
type Config struct {
	Directory directory.Reader
	// Activator, when set, moves identities from none to created on first use.
	Activator Activator
	Parser    Parser
	Executor  Executor
	// Dialogue defaults to a fresh store with DefaultDialogueLimit.
	Dialogue *Dialogue
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Registry builds assistants from directory records. It holds no agents
// itself; each call opens a Scope.
type Registry struct {
	cfg    Config
	events events
}

// NewRegistry creates a registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.Dialogue == nil {
		cfg.Dialogue = NewDialogue(DefaultDialogueLimit)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{cfg: cfg}
}

// OnEvent registers a lifecycle handler.
func (r *Registry) OnEvent(h LifecycleEventHandler) {
	r.events.add(h)
}

// Dialogue returns the shared dialogue store.
func (r *Registry) Dialogue() *Dialogue {
	return r.cfg.Dialogue
}

// Directory returns the identity source.
func (r *Registry) Directory() directory.Reader {
	return r.cfg.Directory
}

// Clock returns the registry clock.
func (r *Registry) Clock() func() time.Time {
	return r.cfg.Clock
}

// Scope opens a per-call agent cache.
func (r *Registry) Scope() *Scope {
	return &Scope{reg: r, assistants: make(map[string]*Assistant)}
}

// Scope caches the assistants built during one inbound call. Identity facts
// are read from the directory the first time each identity is used.
type Scope struct {
	reg        *Registry
	mu         sync.Mutex
	assistants map[string]*Assistant
}

// Assistant returns the assistant for identityID, building it on first use.
func (s *Scope) Assistant(identityID string) (*Assistant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.assistants[identityID]; ok {
		return a, nil
	}

	identity, err := s.reg.cfg.Directory.GetIdentity(identityID)
	if err != nil {
		return nil, err
	}
	a, err := s.build(identity)
	if err != nil {
		return nil, err
	}
	s.assistants[identityID] = a
	return a, nil
}

// Employees lists the employee population as currently stored.
func (s *Scope) Employees() ([]models.Identity, error) {
	return s.reg.cfg.Directory.ListIdentities(models.RoleEmployee)
}

// Registry returns the registry the scope belongs to.
func (s *Scope) Registry() *Registry {
	return s.reg
}

func (s *Scope) build(identity models.Identity) (*Assistant, error) {
	cfg := s.reg.cfg
	now := cfg.Clock()

	if identity.Status == models.StatusNone && cfg.Activator != nil {
		if err := cfg.Activator.MarkCreated(identity.ID); err != nil {
			return nil, fmt.Errorf("activate %s: %w", identity.ID, err)
		}
		identity.Status = models.StatusCreated
		s.reg.events.emit(LifecycleEvent{
			Type:       LifecycleEventActivated,
			IdentityID: identity.ID,
			Timestamp:  now,
		})
	}

	a := &Assistant{
		info: models.Agent{
			ID:                NewAgentID(identity.ID),
			IdentityID:        identity.ID,
			Role:              identity.Role,
			Status:            identity.Status,
			CalendarConnected: identity.Connected(),
			CreatedAt:         now,
		},
		identity: identity,
		parser:   cfg.Parser,
		exec:     cfg.Executor,
		dialogue: cfg.Dialogue,
		now:      cfg.Clock,
	}

	cfg.Logger.Debug("agent created", "agent_id", a.info.ID, "identity", identity.ID,
		"status", identity.Status, "connected", identity.Connected())
	s.reg.events.emit(LifecycleEvent{
		Type:       LifecycleEventCreated,
		AgentID:    a.info.ID,
		IdentityID: identity.ID,
		Timestamp:  now,
	})
	return a, nil
}
