package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Seed is the YAML document accepted by Import.
//
//	employees:
//	  - id: alice
//	    display_name: Alice Smith
//	    contact_address: alice@example.com
//	    timezone: Europe/Berlin
//	supervisors:
//	  - id: boss
//	    display_name: Bo Boss
//	    company: Acme
type Seed struct {
	Employees   []models.Identity   `yaml:"employees"`
	Supervisors []models.Supervisor `yaml:"supervisors"`
}

// ImportResult counts what Import did.
type ImportResult struct {
	Created int
	Skipped int
}

// ParseSeed decodes a seed document, rejecting unknown keys.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// Import creates every identity in the seed inside one transaction. IDs that
// already exist are skipped, so re-importing the same file is harmless.
func (db *DB) Import(seed *Seed) (ImportResult, error) {
	var result ImportResult
	err := db.Transaction(func(tx *sql.Tx) error {
		for idx := range seed.Employees {
			e := seed.Employees[idx]
			e.Role = models.RoleEmployee
			if err := insertIdentity(tx, &e); err != nil {
				if errors.Is(err, ErrExists) {
					result.Skipped++
					continue
				}
				return fmt.Errorf("employee %d: %w", idx, err)
			}
			result.Created++
		}

		for idx := range seed.Supervisors {
			s := seed.Supervisors[idx]
			s.Role = models.RoleSupervisor
			if err := insertIdentity(tx, &s.Identity); err != nil {
				if errors.Is(err, ErrExists) {
					result.Skipped++
					continue
				}
				return fmt.Errorf("supervisor %d: %w", idx, err)
			}
			if _, err := tx.Exec(`
				INSERT INTO supervisors (identity_id, company, position) VALUES (?, ?, ?)
			`, s.ID, s.Company, s.Position); err != nil {
				return fmt.Errorf("supervisor %d: insert details: %w", idx, err)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}
