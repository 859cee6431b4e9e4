package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// storedTime is fixed-width UTC so string order matches time order. That
// only holds for four-digit years, so stored times stay inside
// [minStored, maxStored].
const storedTime = "2006-01-02T15:04:05Z"

var (
	minStored = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxStored = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// LocalProvider keeps events in an SQLite file, partitioned by credential
// handle. It backs identities that have no external calendar.
type LocalProvider struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenLocal opens (and migrates) the local calendar database at path.
func OpenLocal(path string) (*LocalProvider, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create calendar directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open calendar database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(localSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}

	return &LocalProvider{conn: conn, path: path}, nil
}

const localSchema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	handle TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_at TEXT NOT NULL,
	end_at TEXT NOT NULL,
	all_day INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_handle_start ON events(handle, start_at);
`

// Close closes the database connection.
func (p *LocalProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

// Path returns the database file.
func (p *LocalProvider) Path() string {
	return p.path
}

func formatStored(t time.Time) string {
	return t.UTC().Format(storedTime)
}

func storable(t time.Time) bool {
	return !t.Before(minStored) && !t.After(maxStored)
}

// clampStored pins a query bound into the storable range.
func clampStored(t time.Time) time.Time {
	switch {
	case t.Before(minStored):
		return minStored
	case t.After(maxStored):
		return maxStored
	}
	return t
}

// CreateEvent stores ev under a fresh ID.
func (p *LocalProvider) CreateEvent(ctx context.Context, handle string, ev Event) (Event, error) {
	if !ev.End.After(ev.Start) {
		return Event{}, fmt.Errorf("event %q ends before it starts", ev.Title)
	}
	if !storable(ev.Start) || !storable(ev.End) {
		return Event{}, fmt.Errorf("event %q: %w", ev.Title, ErrOutOfRange)
	}
	ev.ID = uuid.New().String()

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.conn.ExecContext(ctx, `
		INSERT INTO events (id, handle, title, description, start_at, end_at, all_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, handle, ev.Title, ev.Description, formatStored(ev.Start), formatStored(ev.End),
		ev.AllDay, formatStored(time.Now()))
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// ListEvents returns events overlapping [from, to) ordered by start.
func (p *LocalProvider) ListEvents(ctx context.Context, handle string, from, to time.Time, limit int) ([]Event, error) {
	events, err := p.window(ctx, handle, from, to)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// SearchEvents matches query case-insensitively against title and description.
func (p *LocalProvider) SearchEvents(ctx context.Context, handle, query string, from, to time.Time) ([]Event, error) {
	events, err := p.window(ctx, handle, from, to)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var out []Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), q) || strings.Contains(strings.ToLower(ev.Description), q) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// DeleteEvent removes one event owned by handle.
func (p *LocalProvider) DeleteEvent(ctx context.Context, handle, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.conn.ExecContext(ctx, "DELETE FROM events WHERE id = ? AND handle = ?", eventID, handle)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return nil
}

// FreeBusy returns the overlapping events as busy intervals.
func (p *LocalProvider) FreeBusy(ctx context.Context, handle string, from, to time.Time) ([]Interval, error) {
	events, err := p.window(ctx, handle, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]Interval, 0, len(events))
	for _, ev := range events {
		out = append(out, Interval{Start: ev.Start, End: ev.End})
	}
	return out, nil
}

func (p *LocalProvider) window(ctx context.Context, handle string, from, to time.Time) ([]Event, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rows, err := p.conn.QueryContext(ctx, `
		SELECT id, title, description, start_at, end_at, all_day
		FROM events
		WHERE handle = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at, id
	`, handle, formatStored(clampStored(to)), formatStored(clampStored(from)))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var start, end string
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &start, &end, &ev.AllDay); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Start, _ = time.Parse(storedTime, start)
		ev.End, _ = time.Parse(storedTime, end)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	sortByStart(out)
	return out, nil
}

var _ Provider = (*LocalProvider)(nil)
