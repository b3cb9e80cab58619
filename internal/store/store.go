package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ohare93/pg/internal/ticket"
)

const (
	// StateDirName is the per-project directory holding config and state
	StateDirName = ".pg"

	// DefaultPrefix namespaces ticket IDs when no prefix is configured
	DefaultPrefix = "PROJ"

	// DefaultTimeout bounds every storage operation
	DefaultTimeout = 5 * time.Second
)

// Config holds options for opening a Store
type Config struct {
	ProjectDir string        // Project root; state lives in ProjectDir/.pg
	Backend    BackendKind   // file (default) or sqlite
	Path       string        // Override for the persistence file
	Prefix     string        // Ticket ID prefix for Create
	Timeout    time.Duration // Per-operation storage timeout
	Logger     *slog.Logger
	Now        func() time.Time // Clock override for tests
}

// DefaultConfig returns the default store configuration for a project
func DefaultConfig(projectDir string) Config {
	return Config{
		ProjectDir: projectDir,
		Backend:    BackendFile,
		Prefix:     DefaultPrefix,
		Timeout:    DefaultTimeout,
	}
}

// Mutation changes a ticket in place. Returning an error aborts the change.
type Mutation func(t *ticket.Ticket) error

// Store is the single source of truth for tickets. It layers ID allocation,
// validation, per-ticket serialization and timeouts over a Backend.
type Store struct {
	backend Backend
	alloc   *Allocator
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	locks sync.Map // ticket ID -> *sync.Mutex
}

// Open load-or-creates the configured backend and wraps it in a Store
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendFile
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath(filepath.Join(cfg.ProjectDir, StateDirName), cfg.Backend)
	}

	backend, err := OpenBackend(ctx, cfg.Backend, path)
	if err != nil {
		return nil, err
	}
	s, err := New(backend, cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-open backend
func New(backend Backend, cfg Config) (*Store, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if err := ticket.ValidatePrefix(cfg.Prefix); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		backend: backend,
		alloc:   NewAllocator(backend),
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}, nil
}

// Prefix returns the prefix used for new tickets
func (s *Store) Prefix() string {
	return s.prefix
}

// Path returns the persistence file of the underlying backend
func (s *Store) Path() string {
	return s.backend.Path()
}

// Now returns the store clock's current time in UTC, truncated to seconds
func (s *Store) Now() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Create allocates an ID and stores a new PENDING ticket
func (s *Store) Create(ctx context.Context, kind ticket.Kind, title, assignee string) (*ticket.Ticket, error) {
	// Validate before allocating so bad input does not burn an ID
	if _, err := ticket.New(ticket.FormatID(s.prefix, 1), kind, title, assignee, time.Time{}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.alloc.Allocate(ctx, s.prefix)
	if err != nil {
		return nil, s.storageErr(ctx, "allocate", err)
	}
	s.logger.Debug("counter advanced", "prefix", s.prefix, "id", id)

	t, err := ticket.New(id, kind, title, assignee, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.backend.Insert(ctx, t); err != nil {
		return nil, s.storageErr(ctx, "insert", err)
	}

	s.logger.Debug("ticket created", "id", t.ID, "kind", t.Kind, "title", t.Title)
	return t.Clone(), nil
}

// Get returns the ticket with the given ID
func (s *Store) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, s.storageErr(ctx, "get", err)
	}
	return t, nil
}

// List returns the tickets matching filter, ordered by ID
func (s *Store) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	all, err := s.backend.List(ctx)
	if err != nil {
		return nil, s.storageErr(ctx, "list", err)
	}
	return filter.Apply(all), nil
}

// Apply runs mutation against the stored ticket and persists the result.
// Calls for the same ID are serialized; the mutated ticket must still
// satisfy every field invariant, its ID, kind and creation time cannot
// change, and a status change must follow the transition graph. updated_at
// is refreshed on success.
func (s *Store) Apply(ctx context.Context, id string, mutation Mutation) (*ticket.Ticket, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.Now()
	updated, err := s.backend.Update(ctx, id, func(t *ticket.Ticket) error {
		before := t.Clone()
		if err := mutation(t); err != nil {
			return err
		}
		if t.ID != before.ID || t.Kind != before.Kind || !t.CreatedAt.Equal(before.CreatedAt) {
			return &ticket.ValidationError{Field: "ticket", Reason: "id, kind and created_at are immutable"}
		}
		if t.Status != before.Status {
			if err := ticket.CheckStatusChange(before, t.Status); err != nil {
				return err
			}
		}
		t.Touch(now)
		return t.Validate()
	})
	if err != nil {
		return nil, s.storageErr(ctx, "update", err)
	}

	s.logger.Debug("ticket updated", "id", updated.ID, "status", updated.Status)
	return updated, nil
}

func (s *Store) lockFor(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// storageErr passes typed errors through and reports deadline overruns as
// storage timeouts
func (s *Store) storageErr(ctx context.Context, op string, err error) error {
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	if timedOut && (errors.Is(err, ticket.ErrStorage) || !ticket.IsTyped(err)) {
		return &ticket.StorageError{Op: op, Err: fmt.Errorf("timed out after %s: %w", s.timeout, err)}
	}
	return ticket.NewStorageError(op, err)
}
