package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/crewcal/internal/orchestrator"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Padding(0, 1)
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// EntryKind distinguishes transcript lines.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryAgent
	EntryEvent
)

// Entry is one line group of the transcript.
type Entry struct {
	Kind      EntryKind
	Text      string
	Timestamp time.Time
	Failed    bool
}

// Transcript accumulates entries and renders them for a fixed width.
type Transcript struct {
	entries []Entry
	agent   string
}

// NewTranscript creates a transcript whose replies are labelled agent.
func NewTranscript(agent string) *Transcript {
	return &Transcript{agent: agent}
}

// Add appends an entry.
func (t *Transcript) Add(e Entry) {
	t.entries = append(t.entries, e)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns the entries in order.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Render formats every entry wrapped to width.
func (t *Transcript) Render(width int) string {
	body := lipgloss.NewStyle().Width(max(width-2, 10))

	var b strings.Builder
	for _, e := range t.entries {
		switch e.Kind {
		case EntryUser:
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(body.Render(e.Text) + "\n\n")
		case EntryAgent:
			b.WriteString(agentStyle.Render(t.agent) + "\n")
			b.WriteString(body.Render(e.Text) + "\n\n")
		case EntryEvent:
			style := eventStyle
			if e.Failed {
				style = errorStyle
			}
			b.WriteString(style.Render(fmt.Sprintf("  %s %s", e.Timestamp.Format("15:04:05"), e.Text)) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// describeEvent turns a workflow event into an activity line.
func describeEvent(ev orchestrator.WorkflowEvent) Entry {
	entry := Entry{Kind: EntryEvent, Timestamp: ev.Timestamp, Failed: ev.Error != nil}
	switch ev.Type {
	case orchestrator.EventStateChanged:
		entry.Text = "directive " + string(ev.State)
	case orchestrator.EventCandidatesFiltered:
		entry.Text = ev.Message
	case orchestrator.EventProbeCompleted:
		entry.Text = fmt.Sprintf("probe %s: %s", ev.IdentityID, ev.Message)
		if ev.Error != nil {
			entry.Text = fmt.Sprintf("probe %s failed: %v", ev.IdentityID, ev.Error)
		}
	case orchestrator.EventDelegated:
		entry.Text = fmt.Sprintf("delegated to %s: %s", ev.IdentityID, ev.Message)
	default:
		entry.Text = string(ev.Type)
	}
	return entry
}
