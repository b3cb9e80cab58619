package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/ohare93/pg/internal/ticket"
)

const (
	documentVersion = 1
	lockRetryDelay  = 10 * time.Millisecond
)

// document is the persisted form of the file backend. It plays the role of
// the status table a team would otherwise edit by hand.
type document struct {
	Version  int              `yaml:"version"`
	Counters map[string]int   `yaml:"counters"`
	Tickets  []*ticket.Ticket `yaml:"tickets"`
}

// FileBackend keeps all state in a single YAML document. Every operation
// holds an exclusive flock on a sibling lock file, so several pg processes
// can share one project safely.
type FileBackend struct {
	path     string
	lockPath string

	// mu serializes goroutines in this process; the flock covers other
	// processes.
	mu sync.Mutex
}

// OpenFileBackend creates the state directory if needed and returns a
// backend for the document at path. A missing document is treated as empty.
func OpenFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, ticket.NewStorageError("open", fmt.Errorf("failed to create state directory: %w", err))
	}
	b := &FileBackend{
		path:     path,
		lockPath: path + ".lock",
	}

	// Surface corruption at open rather than on first use
	if _, err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

// Path returns the document path
func (b *FileBackend) Path() string {
	return b.path
}

// Close is a no-op; locks are only held for the duration of a call
func (b *FileBackend) Close() error {
	return nil
}

// NextSeq increments and persists the counter for prefix
func (b *FileBackend) NextSeq(ctx context.Context, prefix string) (int, error) {
	var next int
	err := b.withDocument(ctx, "allocate", func(doc *document) (bool, error) {
		next = doc.Counters[prefix] + 1
		doc.Counters[prefix] = next
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Insert appends a new ticket to the document
func (b *FileBackend) Insert(ctx context.Context, t *ticket.Ticket) error {
	return b.withDocument(ctx, "insert", func(doc *document) (bool, error) {
		if findTicket(doc, t.ID) >= 0 {
			return false, &ticket.ValidationError{Field: "id", Reason: fmt.Sprintf("ticket %s already exists", t.ID)}
		}
		doc.Tickets = append(doc.Tickets, t.Clone())
		return true, nil
	})
}

// Get returns a copy of the ticket with the given ID
func (b *FileBackend) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	var found *ticket.Ticket
	err := b.withDocument(ctx, "get", func(doc *document) (bool, error) {
		idx := findTicket(doc, id)
		if idx < 0 {
			return false, &ticket.NotFoundError{ID: id}
		}
		found = doc.Tickets[idx].Clone()
		return false, nil
	})
	return found, err
}

// List returns copies of all tickets in document order
func (b *FileBackend) List(ctx context.Context) ([]*ticket.Ticket, error) {
	var out []*ticket.Ticket
	err := b.withDocument(ctx, "list", func(doc *document) (bool, error) {
		out = make([]*ticket.Ticket, 0, len(doc.Tickets))
		for _, t := range doc.Tickets {
			out = append(out, t.Clone())
		}
		return false, nil
	})
	return out, err
}

// Update applies fn to a copy of the ticket and rewrites the document if fn
// succeeds
func (b *FileBackend) Update(ctx context.Context, id string, fn func(*ticket.Ticket) error) (*ticket.Ticket, error) {
	var updated *ticket.Ticket
	err := b.withDocument(ctx, "update", func(doc *document) (bool, error) {
		idx := findTicket(doc, id)
		if idx < 0 {
			return false, &ticket.NotFoundError{ID: id}
		}
		working := doc.Tickets[idx].Clone()
		if err := fn(working); err != nil {
			return false, err
		}
		doc.Tickets[idx] = working
		updated = working.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// withDocument runs fn with the document loaded under both locks. When fn
// reports a change the document is written back before the locks drop.
func (b *FileBackend) withDocument(ctx context.Context, op string, fn func(doc *document) (bool, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fileLock := flock.New(b.lockPath)
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return ticket.NewStorageError(op, fmt.Errorf("failed to acquire lock: %w", err))
	}
	if !locked {
		return ticket.NewStorageError(op, fmt.Errorf("failed to acquire lock on %s", b.lockPath))
	}
	defer fileLock.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}

	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return ticket.NewStorageError(op, err)
	}
	return b.save(doc)
}

// load reads the document; a missing file yields an empty document
func (b *FileBackend) load() (*document, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, ticket.NewStorageError("read", fmt.Errorf("failed to read %s: %w", b.path, err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyDocument(), nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ticket.NewStorageError("read", fmt.Errorf("corrupt document %s: %w", b.path, err))
	}
	if doc.Version > documentVersion {
		return nil, ticket.NewStorageError("read", fmt.Errorf("document %s has version %d, this build understands up to %d", b.path, doc.Version, documentVersion))
	}
	if doc.Counters == nil {
		doc.Counters = make(map[string]int)
	}
	for _, t := range doc.Tickets {
		if t == nil {
			return nil, ticket.NewStorageError("read", fmt.Errorf("corrupt document %s: empty ticket entry", b.path))
		}
		// A counter behind an existing ticket would reissue its ID
		prefix, n, err := ticket.ParseID(t.ID)
		if err != nil {
			return nil, ticket.NewStorageError("read", fmt.Errorf("corrupt document %s: %v", b.path, err))
		}
		if doc.Counters[prefix] < n {
			doc.Counters[prefix] = n
		}
	}
	return &doc, nil
}

// save writes the document to a temp file, syncs it and renames it over
// the original
func (b *FileBackend) save(doc *document) error {
	doc.Version = documentVersion
	data, err := yaml.Marshal(doc)
	if err != nil {
		return ticket.NewStorageError("write", fmt.Errorf("failed to marshal document: %w", err))
	}

	tempPath := b.path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return ticket.NewStorageError("write", fmt.Errorf("failed to create temp file: %w", err))
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempPath)
		return ticket.NewStorageError("write", fmt.Errorf("failed to write document: %w", err))
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return ticket.NewStorageError("write", fmt.Errorf("failed to sync document: %w", err))
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return ticket.NewStorageError("write", fmt.Errorf("failed to close temp file: %w", err))
	}

	// Atomic rename
	if err := os.Rename(tempPath, b.path); err != nil {
		os.Remove(tempPath)
		return ticket.NewStorageError("write", fmt.Errorf("failed to rename temp file: %w", err))
	}

	return nil
}

func emptyDocument() *document {
	return &document{
		Version:  documentVersion,
		Counters: make(map[string]int),
		Tickets:  []*ticket.Ticket{},
	}
}

func findTicket(doc *document, id string) int {
	for i, t := range doc.Tickets {
		if t.ID == id {
			return i
		}
	}
	return -1
}
