package directory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when a credential handle has no stored token.
var ErrNoToken = errors.New("no token stored for credential")

// SaveToken stores or replaces the OAuth token behind handle.
func (db *DB) SaveToken(handle string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO credentials (handle, token, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, handle, string(data), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// LoadToken returns the OAuth token behind handle.
func (db *DB) LoadToken(handle string) (*oauth2.Token, error) {
	var data string
	err := db.QueryRow("SELECT token FROM credentials WHERE handle = ?", handle).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoToken, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &tok, nil
}

// ConnectCalendar stores tok under handle and marks the identity connected
// in one transaction.
func (db *DB) ConnectCalendar(id, handle string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO credentials (handle, token, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(handle) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
		`, handle, string(data), formatTime(time.Now())); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		res, err := tx.Exec(`
			UPDATE identities SET status = 'connected', credential_handle = ? WHERE id = ?
		`, handle, id)
		if err != nil {
			return fmt.Errorf("set credential: %w", err)
		}
		return expectRow(res, id)
	})
}
