package models

import (
	"errors"
	"fmt"
	"time"
)

// Role distinguishes the two agent populations.
type Role string

const (
	// RoleEmployee identities own an assistant agent.
	RoleEmployee Role = "employee"
	// RoleSupervisor identities own a supervisor agent.
	RoleSupervisor Role = "supervisor"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSupervisor:
		return true
	default:
		return false
	}
}

// ConnectionStatus tracks how far an identity got through calendar setup.
type ConnectionStatus string

const (
	// StatusNone indicates no agent has been created for the identity.
	StatusNone ConnectionStatus = "none"
	// StatusCreated indicates the agent exists but no calendar is connected.
	StatusCreated ConnectionStatus = "created"
	// StatusConnected indicates the calendar credential is stored.
	StatusConnected ConnectionStatus = "connected"
)

// Valid returns true if the status is a known value.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case StatusNone, StatusCreated, StatusConnected:
		return true
	default:
		return false
	}
}

// Eligible reports whether an identity in this status may receive delegated work.
func (s ConnectionStatus) Eligible() bool {
	return s == StatusCreated || s == StatusConnected
}

// ErrCredentialMismatch is returned when the credential handle and the
// connection status disagree.
var ErrCredentialMismatch = errors.New("credential handle must be set iff status is connected")

// Identity is a person tracked by the directory.
type Identity struct {
	// ID is the directory key.
	ID string `json:"id" yaml:"id"`
	// Role selects the agent flavor built for this identity.
	Role Role `json:"role" yaml:"role"`
	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name" yaml:"display_name"`
	// ContactAddress is usually an email address.
	ContactAddress string `json:"contact_address" yaml:"contact_address"`
	// Timezone is an IANA zone name such as "Europe/Berlin".
	Timezone string `json:"timezone" yaml:"timezone"`
	// Status is the calendar connection status.
	Status ConnectionStatus `json:"status" yaml:"status"`
	// CredentialHandle is an opaque reference to the stored calendar credential.
	CredentialHandle string `json:"credential_handle,omitempty" yaml:"credential_handle,omitempty"`
	// CreatedAt is when the identity was added to the directory.
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Connected reports whether calendar operations can be executed.
func (i Identity) Connected() bool {
	return i.Status == StatusConnected && i.CredentialHandle != ""
}

// Location returns the identity's timezone, or UTC if the zone is unknown.
func (i Identity) Location() *time.Location {
	if i.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the record invariants.
func (i Identity) Validate() error {
	if i.ID == "" {
		return errors.New("identity id is required")
	}
	if i.DisplayName == "" {
		return fmt.Errorf("identity %s: display name is required", i.ID)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("identity %s: unknown role %q", i.ID, i.Role)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("identity %s: unknown status %q", i.ID, i.Status)
	}
	if (i.CredentialHandle != "") != (i.Status == StatusConnected) {
		return fmt.Errorf("identity %s: %w", i.ID, ErrCredentialMismatch)
	}
	if i.Timezone != "" {
		if _, err := time.LoadLocation(i.Timezone); err != nil {
			return fmt.Errorf("identity %s: invalid timezone %q: %w", i.ID, i.Timezone, err)
		}
	}
	return nil
}

// Supervisor is a supervisor identity with its organizational details.
type Supervisor struct {
	Identity `yaml:",inline"`
	// Company is the organization the supervisor manages.
	Company string `json:"company" yaml:"company"`
	// Position defaults to "Manager".
	Position string `json:"position" yaml:"position"`
}

// DefaultPosition is used when a supervisor has no explicit position.
const DefaultPosition = "Manager"

// Title returns the position, or DefaultPosition when unset.
func (s Supervisor) Title() string {
	if s.Position == "" {
		return DefaultPosition
	}
	return s.Position
}
