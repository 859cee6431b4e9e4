package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/crewcal/internal/orchestrator"
)

func echo(_ context.Context, message string) string {
	return "echo: " + message
}

func TestChatApp_SubmitAndReply(t *testing.T) {
	app := NewChatApp(context.Background(), "crewcal", "Assistant", echo)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	_, cmd := app.Update(MessageSubmittedMsg{Text: "hello"})
	if !app.waiting {
		t.Error("app should wait for the reply")
	}
	if cmd == nil {
		t.Fatal("expected a command asking the responder")
	}

	reply, ok := cmd().(ReplyMsg)
	if !ok {
		t.Fatalf("expected ReplyMsg")
	}
	if reply.Text != "echo: hello" {
		t.Errorf("reply = %q", reply.Text)
	}

	app.Update(reply)
	if app.waiting {
		t.Error("app should accept input after the reply")
	}

	entries := app.Transcript().Entries()
	if len(entries) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(entries))
	}
	if entries[0].Kind != EntryUser || entries[1].Kind != EntryAgent {
		t.Errorf("unexpected kinds: %v, %v", entries[0].Kind, entries[1].Kind)
	}
}

func TestChatApp_KeysIgnoredWhileWaiting(t *testing.T) {
	app := NewChatApp(context.Background(), "crewcal", "Assistant", echo)
	app.waiting = true
	app.inputField.input.SetValue("queued")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter should be ignored while a reply is pending")
	}
}

func TestChatApp_Quit(t *testing.T) {
	app := NewChatApp(context.Background(), "crewcal", "Assistant", echo)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
	if app.View() != "Goodbye!\n" {
		t.Errorf("View after quit = %q", app.View())
	}
}

func TestChatApp_WorkflowEvents(t *testing.T) {
	app := NewChatApp(context.Background(), "crewcal", "Supervisor", echo)
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	app.Update(WorkflowEventMsg{Event: orchestrator.WorkflowEvent{
		Type: orchestrator.EventProbeCompleted, IdentityID: "ber", Message: "free", Timestamp: at,
	}})
	app.Update(WorkflowEventMsg{Event: orchestrator.WorkflowEvent{
		Type: orchestrator.EventProbeCompleted, IdentityID: "ny", Error: errors.New("token revoked"), Timestamp: at,
	}})

	entries := app.Transcript().Entries()
	if len(entries) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(entries))
	}
	if entries[0].Text != "probe ber: free" {
		t.Errorf("entry 0 = %q", entries[0].Text)
	}
	if !entries[1].Failed || !strings.Contains(entries[1].Text, "token revoked") {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		ev   orchestrator.WorkflowEvent
		want string
	}{
		{orchestrator.WorkflowEvent{Type: orchestrator.EventStateChanged, State: orchestrator.StateParsed}, "directive parsed"},
		{orchestrator.WorkflowEvent{Type: orchestrator.EventCandidatesFiltered, Message: "2 of 5 team members in a matching shift"}, "2 of 5 team members in a matching shift"},
		{orchestrator.WorkflowEvent{Type: orchestrator.EventDelegated, IdentityID: "ber", Message: "Quarterly report"}, "delegated to ber: Quarterly report"},
	}
	for _, tt := range tests {
		if got := describeEvent(tt.ev).Text; got != tt.want {
			t.Errorf("describeEvent(%s) = %q, want %q", tt.ev.Type, got, tt.want)
		}
	}
}

func TestTranscript_Render(t *testing.T) {
	tr := NewTranscript("Assistant")
	tr.Add(Entry{Kind: EntryUser, Text: "what's on today?"})
	tr.Add(Entry{Kind: EntryAgent, Text: "You have no events in the next 7 days."})

	out := tr.Render(60)
	for _, want := range []string{"You", "what's on today?", "Assistant", "no events"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}
