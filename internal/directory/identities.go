package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/crewcal/pkg/models"
)

const identityColumns = `id, role, display_name, contact_address, timezone, status, credential_handle, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (models.Identity, error) {
	var i models.Identity
	var createdAt string
	if err := row.Scan(&i.ID, &i.Role, &i.DisplayName, &i.ContactAddress, &i.Timezone,
		&i.Status, &i.CredentialHandle, &createdAt); err != nil {
		return models.Identity{}, err
	}
	i.CreatedAt, _ = parseTime(createdAt)
	return i, nil
}

func insertIdentity(tx *sql.Tx, i *models.Identity) error {
	if i.Status == "" {
		i.Status = models.StatusNone
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	if err := i.Validate(); err != nil {
		return err
	}

	var exists int
	if err := tx.QueryRow("SELECT COUNT(1) FROM identities WHERE id = ?", i.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check identity: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrExists, i.ID)
	}

	_, err := tx.Exec(`
		INSERT INTO identities (`+identityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, string(i.Role), i.DisplayName, i.ContactAddress, i.Timezone,
		string(i.Status), i.CredentialHandle, formatTime(i.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// CreateIdentity adds an identity. Status defaults to none.
func (db *DB) CreateIdentity(i *models.Identity) error {
	return db.Transaction(func(tx *sql.Tx) error {
		return insertIdentity(tx, i)
	})
}

// GetIdentity retrieves an identity by ID.
func (db *DB) GetIdentity(id string) (models.Identity, error) {
	row := db.QueryRow(`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	i, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("get identity: %w", err)
	}
	return i, nil
}

// ListIdentities lists identities with the given role in insertion order.
// An empty role lists everyone.
func (db *DB) ListIdentities(role models.Role) ([]models.Identity, error) {
	var rows *sql.Rows
	var err error
	if role == "" {
		rows, err = db.Query(`SELECT ` + identityColumns + ` FROM identities ORDER BY seq`)
	} else {
		rows, err = db.Query(`SELECT `+identityColumns+` FROM identities WHERE role = ? ORDER BY seq`, string(role))
	}
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []models.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UpdateIdentity rewrites the mutable profile fields of an identity.
func (db *DB) UpdateIdentity(i models.Identity) error {
	if err := i.Validate(); err != nil {
		return err
	}
	res, err := db.Exec(`
		UPDATE identities SET display_name = ?, contact_address = ?, timezone = ?, status = ?, credential_handle = ?
		WHERE id = ?
	`, i.DisplayName, i.ContactAddress, i.Timezone, string(i.Status), i.CredentialHandle, i.ID)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return expectRow(res, i.ID)
}

// MarkCreated records that an agent was built for the identity. Connected
// identities keep their status.
func (db *DB) MarkCreated(id string) error {
	res, err := db.Exec(`
		UPDATE identities SET status = ? WHERE id = ? AND status = ?
	`, string(models.StatusCreated), id, string(models.StatusNone))
	if err != nil {
		return fmt.Errorf("mark created: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or already past none
		_, err := db.GetIdentity(id)
		return err
	}
	return nil
}

// SetCredential flips the identity to connected with handle.
func (db *DB) SetCredential(id, handle string) error {
	if handle == "" {
		return fmt.Errorf("identity %s: %w", id, models.ErrCredentialMismatch)
	}
	res, err := db.Exec(`
		UPDATE identities SET status = ?, credential_handle = ? WHERE id = ?
	`, string(models.StatusConnected), handle, id)
	if err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return expectRow(res, id)
}

// ClearCredential drops the credential and returns the identity to created.
func (db *DB) ClearCredential(id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		var handle string
		err := tx.QueryRow("SELECT credential_handle FROM identities WHERE id = ?", id).Scan(&handle)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("read credential: %w", err)
		}
		if _, err := tx.Exec(`
			UPDATE identities SET status = ?, credential_handle = '' WHERE id = ?
		`, string(models.StatusCreated), id); err != nil {
			return fmt.Errorf("clear credential: %w", err)
		}
		if handle != "" {
			if _, err := tx.Exec("DELETE FROM credentials WHERE handle = ?", handle); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
		}
		return nil
	})
}

// DeleteIdentity removes an identity and its supervisor details.
func (db *DB) DeleteIdentity(id string) error {
	res, err := db.Exec("DELETE FROM identities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return expectRow(res, id)
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CreateSupervisor adds a supervisor identity with its organizational details.
func (db *DB) CreateSupervisor(s *models.Supervisor) error {
	s.Role = models.RoleSupervisor
	return db.Transaction(func(tx *sql.Tx) error {
		if err := insertIdentity(tx, &s.Identity); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT INTO supervisors (identity_id, company, position) VALUES (?, ?, ?)
		`, s.ID, s.Company, s.Position)
		if err != nil {
			return fmt.Errorf("insert supervisor: %w", err)
		}
		return nil
	})
}

// GetSupervisor retrieves a supervisor by identity ID.
func (db *DB) GetSupervisor(id string) (models.Supervisor, error) {
	i, err := db.GetIdentity(id)
	if err != nil {
		return models.Supervisor{}, err
	}
	if i.Role != models.RoleSupervisor {
		return models.Supervisor{}, fmt.Errorf("%w: %s is not a supervisor", ErrNotFound, id)
	}

	s := models.Supervisor{Identity: i}
	err = db.QueryRow("SELECT company, position FROM supervisors WHERE identity_id = ?", id).
		Scan(&s.Company, &s.Position)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Supervisor{}, fmt.Errorf("get supervisor: %w", err)
	}
	return s, nil
}
