package intent

import (
	"context"
	"time"

	"github.com/ShayCichocki/crewcal/internal/llm"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// MaxHistory is the number of dialogue turns included in the prompt.
const MaxHistory = 10

// Context anchors relative time expressions and carries recent dialogue.
type Context struct {
	// Timezone is the caller's IANA zone name.
	Timezone string
	// Now is the reference instant. Zero means time.Now().
	Now     time.Time
	History []Turn
}

// Parser classifies free text into one action of its role's shape set.
type Parser struct {
	completer   llm.Completer
	role        Role
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewParser creates a parser for role with the default completion bounds.
func NewParser(completer llm.Completer, role Role) *Parser {
	return &Parser{
		completer:   completer,
		role:        role,
		MaxTokens:   500,
		Temperature: 0.1,
		Timeout:     30 * time.Second,
	}
}

// Role returns the shape set the parser accepts.
func (p *Parser) Role() Role {
	return p.role
}

// Parse makes one completion call and decodes the reply. The returned action
// always passes Validate; every error is a *Failure.
func (p *Parser) Parse(ctx context.Context, message string, pc Context) (action models.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action = nil
			err = &Failure{Kind: FailureMalformed, Reason: "parser panic"}
		}
	}()

	loc := time.UTC
	if pc.Timezone != "" {
		if l, lerr := time.LoadLocation(pc.Timezone); lerr == nil {
			loc = l
		}
	}
	now := pc.Now
	if now.IsZero() {
		now = time.Now()
	}
	history := pc.History
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	text, err := p.completer.Complete(ctx, llm.Request{
		System:      buildSystemPrompt(p.role, loc.String(), now.In(loc), history),
		Prompt:      message,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Timeout:     p.Timeout,
	})
	if err != nil {
		return nil, &Failure{Kind: FailureUnreachable, Reason: "completion call", Err: err}
	}

	return Decode(text, p.role)
}
