package directory

import (
	"io"

	"golang.org/x/oauth2"

	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Reader is the read side used by agents and orchestration. Every call
// observes the current stored state.
type Reader interface {
	GetIdentity(id string) (models.Identity, error)
	ListIdentities(role models.Role) ([]models.Identity, error)
}

// Writer mutates identity records.
type Writer interface {
	CreateIdentity(i *models.Identity) error
	UpdateIdentity(i models.Identity) error
	MarkCreated(id string) error
	SetCredential(id, handle string) error
	ClearCredential(id string) error
	DeleteIdentity(id string) error
}

// TokenStore persists OAuth tokens keyed by credential handle.
type TokenStore interface {
	SaveToken(handle string, tok *oauth2.Token) error
	LoadToken(handle string) (*oauth2.Token, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// Store is the full directory surface.
type Store interface {
	io.Closer
	Migrator
	Reader
	Writer
	TokenStore
	CreateSupervisor(s *models.Supervisor) error
	GetSupervisor(id string) (models.Supervisor, error)
	ConnectCalendar(id, handle string, tok *oauth2.Token) error
	Import(seed *Seed) (ImportResult, error)
}

var (
	_ Store      = (*DB)(nil)
	_ Reader     = (*DB)(nil)
	_ Writer     = (*DB)(nil)
	_ TokenStore = (*DB)(nil)
	_ Migrator   = (*DB)(nil)
)
