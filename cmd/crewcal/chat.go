package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/crewcal/internal/agent"
	"github.com/ShayCichocki/crewcal/internal/llm"
	"github.com/ShayCichocki/crewcal/internal/orchestrator"
	"github.com/ShayCichocki/crewcal/internal/tui"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

var (
	chatMessage string
	bossMessage string
)

var chatCmd = &cobra.Command{
	Use:   "chat <identity-id>",
	Short: "Talk to an employee's calendar assistant",
	Long: `Open an interactive session with the calendar assistant of one employee.

Examples of what the assistant understands:
  Schedule a design review tomorrow at 3pm for 1 hour
  What's on my calendar this week?
  Am I free Friday at 10am?
  Cancel the team lunch

With --message the reply is printed and the command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

var bossCmd = &cobra.Command{
	Use:   "boss <supervisor-id>",
	Short: "Give directives to a supervisor agent",
	Long: `Open an interactive session with a supervisor agent. Directives fan out
to the team's assistants; their progress is shown between the messages.

Examples:
  Assign the quarterly report to someone tomorrow at 14:00 for 2 hours, high priority
  How is the team doing?
  Who is free Friday at 10am?
  Tell Alice the standup moved to 11

With --message the reply is printed and the command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoss,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send one message and print the reply")
	bossCmd.Flags().StringVarP(&bossMessage, "message", "m", "", "Send one directive and print the reply")
}

// assistantResponder opens a fresh scope per message so connection status
// changes made elsewhere are picked up between turns.
func assistantResponder(reg *agent.Registry, id string) tui.Responder {
	return func(ctx context.Context, message string) string {
		assistant, err := reg.Scope().Assistant(id)
		if err != nil {
			return fmt.Sprintf("Sorry, I couldn't load %s: %v", id, err)
		}
		return assistant.Chat(ctx, message)
	}
}

func supervisorResponder(a *app, reg *agent.Registry, completer llm.Completer, id string, emitter *orchestrator.EventEmitter) tui.Responder {
	return func(ctx context.Context, message string) string {
		sup, err := a.supervisor(reg, completer, id, emitter)
		if err != nil {
			return fmt.Sprintf("Sorry, I couldn't load %s: %v", id, err)
		}
		return sup.Chat(ctx, message)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	id := args[0]
	a, err := openApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	identity, err := a.dir.GetIdentity(id)
	if err != nil {
		return err
	}
	if identity.Role != models.RoleEmployee {
		return fmt.Errorf("%s is a %s; use 'crewcal boss %s' instead", id, identity.Role, id)
	}

	completer, err := a.completer()
	if err != nil {
		return err
	}
	reg := a.registry(completer)
	respond := assistantResponder(reg, id)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if chatMessage != "" {
		fmt.Fprintln(cmd.OutOrStdout(), respond(ctx, chatMessage))
		return nil
	}

	program, _ := tui.NewChatProgram(ctx, "crewcal · "+identity.DisplayName, "Assistant", respond)
	_, err = program.Run()
	return err
}

func runBoss(cmd *cobra.Command, args []string) error {
	id := args[0]
	a, err := openApp(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	boss, err := a.dir.GetSupervisor(id)
	if err != nil {
		return err
	}

	completer, err := a.completer()
	if err != nil {
		return err
	}
	reg := a.registry(completer)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if bossMessage != "" {
		respond := supervisorResponder(a, reg, completer, id, nil)
		fmt.Fprintln(cmd.OutOrStdout(), respond(ctx, bossMessage))
		return nil
	}

	emitter := orchestrator.NewEventEmitter(256)
	respond := supervisorResponder(a, reg, completer, id, emitter)
	program, chat := tui.NewChatProgram(ctx, fmt.Sprintf("crewcal · %s (%s)", boss.DisplayName, boss.Title()), "Supervisor", respond)
	go chat.ListenForEvents(program, emitter.Events())

	_, err = program.Run()
	emitter.Close()
	return err
}
