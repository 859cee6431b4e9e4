package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/crewcal/internal/agent"
	"github.com/ShayCichocki/crewcal/internal/calendar"
	"github.com/ShayCichocki/crewcal/internal/config"
	"github.com/ShayCichocki/crewcal/internal/directory"
	"github.com/ShayCichocki/crewcal/internal/executor"
	"github.com/ShayCichocki/crewcal/internal/intent"
	"github.com/ShayCichocki/crewcal/internal/llm"
	"github.com/ShayCichocki/crewcal/internal/orchestrator"
)

// app holds the stores and services one command invocation works with.
type app struct {
	cfg      *config.Config
	dir      *directory.DB
	provider calendar.Provider
	// local is set when the local calendar backs provider.
	local   *calendar.LocalProvider
	oauth   *calendar.OAuth
	closers []io.Closer
	logger  *slog.Logger
}

// openDirectory opens only the directory database.
func openDirectory(cfg *config.Config) (*app, error) {
	dir, err := directory.OpenMigrated(cfg.DirectoryPath())
	if err != nil {
		return nil, fmt.Errorf("open directory: %w", err)
	}
	return &app{cfg: cfg, dir: dir, closers: []io.Closer{dir}, logger: slog.Default()}, nil
}

// openApp opens the directory and the configured calendar provider.
func openApp(cfg *config.Config) (*app, error) {
	a, err := openDirectory(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Calendar.Provider {
	case config.ProviderGoogle:
		id, secret, err := config.GoogleClient(cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.oauth = calendar.NewOAuth(id, secret, cfg.Calendar.Google.RedirectURL)
		a.provider = calendar.NewGoogleProvider(a.oauth, a.dir)
	default:
		local, err := calendar.OpenLocal(cfg.LocalCalendarPath())
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open local calendar: %w", err)
		}
		a.local = local
		a.provider = local
		a.closers = append(a.closers, local)
	}
	return a, nil
}

// Close releases every store in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// completer builds the completion client from the anthropic section.
func (a *app) completer() (*llm.Client, error) {
	cc := llm.ClientConfig{
		Model:         anthropic.Model(a.cfg.Anthropic.Model),
		UseAWSBedrock: a.cfg.Anthropic.UseBedrock,
		AWSRegion:     a.cfg.Anthropic.AWSRegion,
		AWSProfile:    a.cfg.Anthropic.AWSProfile,
	}
	if !cc.UseAWSBedrock {
		key, err := config.GetAPIKey(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w (set ANTHROPIC_API_KEY or run: crewcal config anthropic.api_key <key>)", err)
		}
		cc.APIKey = key
	}

	client, err := llm.NewClient(cc)
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}
	return client, nil
}

// parser binds completer to role with the configured completion bounds.
func (a *app) parser(completer llm.Completer, role intent.Role) *intent.Parser {
	p := intent.NewParser(completer, role)
	p.MaxTokens = a.cfg.Completion.MaxTokens
	p.Temperature = a.cfg.Completion.Temperature
	p.Timeout = a.cfg.Completion.Timeout
	return p
}

// registry builds the assistant registry over the directory and provider.
func (a *app) registry(completer llm.Completer) *agent.Registry {
	reg := agent.NewRegistry(agent.Config{
		Directory: a.dir,
		Activator: a.dir,
		Parser:    a.parser(completer, intent.RoleAssistant),
		Executor:  executor.New(a.provider, executor.WithLogger(a.logger)),
		Logger:    a.logger,
	})
	reg.OnEvent(func(ev agent.LifecycleEvent) {
		a.logger.Debug("agent lifecycle", "type", ev.Type, "identity", ev.IdentityID, "agent_id", ev.AgentID)
	})
	return reg
}

// prober returns a prober with the configured fan-out.
func (a *app) prober() orchestrator.Prober {
	return orchestrator.Prober{Concurrency: a.cfg.Orchestrator.ProbeConcurrency, Logger: a.logger}
}

// supervisor binds the supervisor identity id to a fresh scope of reg.
func (a *app) supervisor(reg *agent.Registry, completer llm.Completer, id string, emitter *orchestrator.EventEmitter) (*orchestrator.Supervisor, error) {
	boss, err := a.dir.GetSupervisor(id)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewSupervisor(reg.Scope(), boss, a.parser(completer, intent.RoleSupervisor), orchestrator.Options{
		Prober:  a.prober(),
		Emitter: emitter,
		Logger:  a.logger,
	}), nil
}
