package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ohare93/pg/internal/ticket"
)

// BackendKind names a persistence implementation
type BackendKind string

const (
	BackendFile   BackendKind = "file"
	BackendSQLite BackendKind = "sqlite"
)

const (
	fileDocumentName = "tickets.yaml"
	sqliteFileName   = "tickets.db"
)

// Counter issues the next sequence number for a prefix. Implementations
// must perform the read-modify-write atomically, including across
// processes sharing the same persisted state.
type Counter interface {
	NextSeq(ctx context.Context, prefix string) (int, error)
}

// Backend persists tickets and per-prefix counters
type Backend interface {
	Counter

	// Insert stores a new ticket. The ID must not already exist.
	Insert(ctx context.Context, t *ticket.Ticket) error

	// Get returns a copy of the ticket or a NotFoundError.
	Get(ctx context.Context, id string) (*ticket.Ticket, error)

	// List returns copies of every stored ticket in no particular order.
	List(ctx context.Context) ([]*ticket.Ticket, error)

	// Update loads the ticket, applies fn and persists the result in one
	// atomic step. If fn returns an error nothing is written.
	Update(ctx context.Context, id string, fn func(*ticket.Ticket) error) (*ticket.Ticket, error)

	// Path returns the file the backend persists to.
	Path() string

	Close() error
}

// ValidateBackendKind checks if a backend name is known
func ValidateBackendKind(s string) bool {
	switch BackendKind(s) {
	case BackendFile, BackendSQLite:
		return true
	default:
		return false
	}
}

// DefaultPath returns the conventional persistence file for a backend
// inside the given state directory
func DefaultPath(stateDir string, kind BackendKind) string {
	if kind == BackendSQLite {
		return filepath.Join(stateDir, sqliteFileName)
	}
	return filepath.Join(stateDir, fileDocumentName)
}

// OpenBackend opens (creating if needed) the backend of the given kind
func OpenBackend(ctx context.Context, kind BackendKind, path string) (Backend, error) {
	switch kind {
	case BackendFile, "":
		return OpenFileBackend(path)
	case BackendSQLite:
		return OpenSQLiteBackend(ctx, path)
	default:
		return nil, &ticket.ValidationError{Field: "storage.backend", Reason: fmt.Sprintf("unknown backend %q (must be file|sqlite)", kind)}
	}
}
