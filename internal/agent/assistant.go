package agent

import (
	"context"
	"errors"
	"time"

	"github.com/ShayCichocki/crewcal/internal/executor"
	"github.com/ShayCichocki/crewcal/internal/intent"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Fixed replies.
const (
	ConnectPrompt = "I'd love to help with your calendar! Please connect your calendar first " +
		"(`crewcal calendar connect`) so I can see your events and schedule meetings."
	ClarifyMessage = "Sorry, I didn't catch that. Try something like:\n" +
		"• \"Schedule a design review tomorrow at 3pm for 1 hour\"\n" +
		"• \"What's on my calendar this week?\"\n" +
		"• \"Find my dentist appointment\"\n" +
		"• \"Cancel the team lunch\"\n" +
		"• \"Am I free Friday at 10am?\""
	TryAgainMessage = "Sorry, I'm having trouble connecting right now. Please try again in a moment."
)

// Parser classifies a message into an action.
type Parser interface {
	Parse(ctx context.Context, message string, pc intent.Context) (models.Action, error)
}

// Executor runs an action for an identity.
type Executor interface {
	Execute(ctx context.Context, identity models.Identity, action models.Action) executor.Result
}

// Assistant binds one identity snapshot to a parser and an executor.
type Assistant struct {
	info     models.Agent
	identity models.Identity
	parser   Parser
	exec     Executor
	dialogue *Dialogue
	now      func() time.Time
}

// ID returns the agent instance ID.
func (a *Assistant) ID() string {
	return a.info.ID
}

// Identity returns the identity snapshot the agent was built from.
func (a *Assistant) Identity() models.Identity {
	return a.identity
}

// Info describes the agent, including its current dialogue length.
func (a *Assistant) Info() models.Agent {
	info := a.info
	info.ConversationLength = a.dialogue.Len(a.identity.ID)
	return info
}

// Chat answers one free-text message. Failures always resolve to a reply.
func (a *Assistant) Chat(ctx context.Context, message string) string {
	reply := a.reply(ctx, message)
	a.dialogue.Append(a.identity.ID,
		intent.Turn{Speaker: "user", Text: message},
		intent.Turn{Speaker: "assistant", Text: reply},
	)
	return reply
}

func (a *Assistant) reply(ctx context.Context, message string) string {
	if !a.identity.Connected() {
		return ConnectPrompt
	}

	action, err := a.parser.Parse(ctx, message, intent.Context{
		Timezone: a.identity.Location().String(),
		Now:      a.now(),
		History:  a.dialogue.History(a.identity.ID),
	})
	if err != nil {
		if intent.IsUnreachable(err) {
			return TryAgainMessage
		}
		return ClarifyMessage
	}

	return a.exec.Execute(ctx, a.identity, action).Text
}

// CheckAvailability reports whether the identity is free for hours from at.
func (a *Assistant) CheckAvailability(ctx context.Context, at time.Time, hours float64) (models.Availability, error) {
	res := a.exec.Execute(ctx, a.identity, models.CheckAvailability{
		CheckTime:     at.Format(time.RFC3339),
		DurationHours: hours,
	})
	if res.Err != nil {
		return models.Availability{}, res.Err
	}
	if res.Availability == nil {
		return models.Availability{}, errors.New(res.Text)
	}
	return *res.Availability, nil
}

// Perform runs an already structured action on the identity's calendar.
func (a *Assistant) Perform(ctx context.Context, action models.Action) executor.Result {
	if err := action.Validate(); err != nil {
		return executor.Result{Text: err.Error(), Err: err}
	}
	return a.exec.Execute(ctx, a.identity, action)
}
