package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/crewcal/internal/orchestrator"
)

// Responder answers one chat message. Agents' Chat methods satisfy it.
type Responder func(ctx context.Context, message string) string

// ReplyMsg carries a Responder's answer back to the UI.
type ReplyMsg struct {
	Text string
}

// WorkflowEventMsg wraps a supervisor workflow event.
type WorkflowEventMsg struct {
	Event orchestrator.WorkflowEvent
}

// ChatApp is the main model for interactive chat.
type ChatApp struct {
	title      string
	respond    Responder
	ctx        context.Context
	transcript *Transcript
	viewport   viewport.Model
	inputField *InputField
	width      int
	height     int
	waiting    bool
	quitting   bool
}

// NewChatApp creates a chat model. agent labels the replies.
func NewChatApp(ctx context.Context, title, agent string, respond Responder) *ChatApp {
	vp := viewport.New(80, 20)
	return &ChatApp{
		title:      title,
		respond:    respond,
		ctx:        ctx,
		transcript: NewTranscript(agent),
		viewport:   vp,
		inputField: NewInputField("Type a message and press Enter..."),
		width:      80,
		height:     24,
	}
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return a.inputField.Focus()
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			a.quitting = true
			return a, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
		if a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.inputField, cmd = a.inputField.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case MessageSubmittedMsg:
		a.transcript.Add(Entry{Kind: EntryUser, Text: msg.Text})
		a.waiting = true
		a.inputField.Blur()
		a.refresh()
		return a, a.ask(msg.Text)

	case ReplyMsg:
		a.transcript.Add(Entry{Kind: EntryAgent, Text: msg.Text})
		a.waiting = false
		a.refresh()
		return a, a.inputField.Focus()

	case WorkflowEventMsg:
		a.transcript.Add(describeEvent(msg.Event))
		a.refresh()
		return a, nil
	}

	return a, nil
}

func (a *ChatApp) ask(text string) tea.Cmd {
	respond, ctx := a.respond, a.ctx
	return func() tea.Msg {
		return ReplyMsg{Text: respond(ctx, text)}
	}
}

// updateSizes updates the sizes of child components based on terminal size.
func (a *ChatApp) updateSizes() {
	// Title takes 1 line, status 1 line, input 3 lines (border + content)
	a.viewport.Width = a.width
	a.viewport.Height = max(a.height-5, 1)
	a.inputField.SetWidth(a.width)
	a.refresh()
}

func (a *ChatApp) refresh() {
	a.viewport.SetContent(a.transcript.Render(a.width))
	a.viewport.GotoBottom()
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}

	status := eventStyle.Render("Enter to send · PgUp/PgDn to scroll · Esc to quit")
	if a.waiting {
		status = eventStyle.Render("thinking...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(a.title),
		a.viewport.View(),
		status,
		a.inputField.View(),
	)
}

// Transcript returns the conversation so far.
func (a *ChatApp) Transcript() *Transcript {
	return a.transcript
}

// ListenForEvents forwards workflow events into program until events closes.
func (a *ChatApp) ListenForEvents(program *tea.Program, events <-chan orchestrator.WorkflowEvent) {
	for ev := range events {
		program.Send(WorkflowEventMsg{Event: ev})
	}
}

// NewChatProgram creates a new Bubbletea program for a chat session.
func NewChatProgram(ctx context.Context, title, agent string, respond Responder) (*tea.Program, *ChatApp) {
	app := NewChatApp(ctx, title, agent, respond)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	return p, app
}
