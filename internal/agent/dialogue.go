package agent

import (
	"sync"

	"github.com/ShayCichocki/crewcal/internal/intent"
)

// DefaultDialogueLimit is how many messages are remembered per identity.
const DefaultDialogueLimit = 10

// Dialogue holds recent messages per identity. It outlives the agents built
// from it; identity facts never live here.
type Dialogue struct {
	mu    sync.Mutex
	limit int
	turns map[string][]intent.Turn
}

// NewDialogue creates a dialogue store keeping the last limit messages.
func NewDialogue(limit int) *Dialogue {
	if limit <= 0 {
		limit = DefaultDialogueLimit
	}
	return &Dialogue{limit: limit, turns: make(map[string][]intent.Turn)}
}

// History returns a copy of the remembered messages, oldest first.
func (d *Dialogue) History(identityID string) []intent.Turn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]intent.Turn(nil), d.turns[identityID]...)
}

// Append records messages and drops the oldest past the limit.
func (d *Dialogue) Append(identityID string, turns ...intent.Turn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := append(d.turns[identityID], turns...)
	if len(all) > d.limit {
		all = append([]intent.Turn(nil), all[len(all)-d.limit:]...)
	}
	d.turns[identityID] = all
}

// Len returns the number of remembered messages.
func (d *Dialogue) Len(identityID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.turns[identityID])
}

// Reset forgets an identity's dialogue.
func (d *Dialogue) Reset(identityID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.turns, identityID)
}
