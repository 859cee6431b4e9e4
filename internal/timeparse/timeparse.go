// Package timeparse resolves the time expressions found in chat messages
// ("2025-07-12 14:00", "tomorrow at 3pm", "next friday 10am") against a
// timezone and an anchor instant.
package timeparse

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnparseable is returned when no time could be recognized.
var ErrUnparseable = errors.New("unrecognized time expression")

// layouts are tried in order before natural-language parsing. Layouts without
// an offset are interpreted in the caller's location.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04PM",
	"2006-01-02 3:04pm",
	"2006-01-02 3PM",
	"2006-01-02 3pm",
}

var (
	parserOnce sync.Once
	parser     *when.Parser
)

func natural() *when.Parser {
	parserOnce.Do(func() {
		parser = when.New(nil)
		parser.Add(en.All...)
		parser.Add(common.All...)
	})
	return parser
}

// Resolve converts text into an absolute time in loc. Relative expressions are
// anchored on now. A nil loc means UTC.
func Resolve(text string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, ErrUnparseable
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}

	r, err := natural().Parse(s, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparseable, s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	return r.Time.In(loc), nil
}

// Hour returns the hour of day text resolves to in loc.
func Hour(text string, loc *time.Location, now time.Time) (int, error) {
	t, err := Resolve(text, loc, now)
	if err != nil {
		return 0, err
	}
	return t.Hour(), nil
}

// Format renders t the way confirmations show it, e.g. "Sat Jul 12 2025, 2:00 PM CEST".
func Format(t time.Time) string {
	return t.Format("Mon Jan 2 2006, 3:04 PM MST")
}
