package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ohare93/pg/internal/ticket"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const timeLayout = time.RFC3339Nano

// SQLiteBackend stores tickets in a SQLite database. Writes run in
// IMMEDIATE transactions so the counter increment and ticket updates are
// serialized across processes by SQLite itself.
type SQLiteBackend struct {
	path string
	db   *sql.DB
}

// OpenSQLiteBackend opens the database at path, applying any pending
// migrations first.
func OpenSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, ticket.NewStorageError("open", fmt.Errorf("failed to create state directory: %w", err))
	}

	if err := runMigrations(path); err != nil {
		return nil, ticket.NewStorageError("migrate", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, ticket.NewStorageError("open", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ticket.NewStorageError("open", err)
	}

	return &SQLiteBackend{path: path, db: db}, nil
}

// runMigrations applies the embedded schema migrations. It uses its own
// connection because closing a migrate instance closes its database.
func runMigrations(path string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Path returns the database file path
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Close closes the database handle
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// NextSeq atomically increments the counter for prefix. The counter is
// never allowed to fall behind the highest stored suffix.
func (b *SQLiteBackend) NextSeq(ctx context.Context, prefix string) (int, error) {
	var next int
	err := b.withTx(ctx, "allocate", func(tx *sql.Tx) error {
		var maxSeq int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) FROM tickets WHERE prefix = ?`, prefix,
		).Scan(&maxSeq); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO counters (prefix, last) VALUES (?, ? + 1)
			ON CONFLICT (prefix) DO UPDATE SET last = MAX(counters.last, excluded.last - 1) + 1
			RETURNING last`, prefix, maxSeq,
		).Scan(&next)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Insert stores a new ticket and its history
func (b *SQLiteBackend) Insert(ctx context.Context, t *ticket.Ticket) error {
	prefix, seq, err := ticket.ParseID(t.ID)
	if err != nil {
		return err
	}
	return b.withTx(ctx, "insert", func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE id = ?`, t.ID).Scan(&exists); err != nil {
			return err
		}
		if exists > 0 {
			return &ticket.ValidationError{Field: "id", Reason: fmt.Sprintf("ticket %s already exists", t.ID)}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO tickets (id, prefix, seq, title, kind, status, branch, assignee, blocker_reason, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, prefix, seq, t.Title, string(t.Kind), string(t.Status), t.Branch, t.Assignee, t.BlockerReason,
			t.CreatedAt.UTC().Format(timeLayout), t.UpdatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return err
		}
		return insertHistory(ctx, tx, t.ID, t.History, 0)
	})
}

// Get returns the ticket with the given ID
func (b *SQLiteBackend) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	var t *ticket.Ticket
	err := b.withTx(ctx, "get", func(tx *sql.Tx) error {
		var err error
		t, err = getTicket(ctx, tx, id)
		return err
	})
	return t, err
}

// List returns every stored ticket
func (b *SQLiteBackend) List(ctx context.Context) ([]*ticket.Ticket, error) {
	var out []*ticket.Ticket
	err := b.withTx(ctx, "list", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, ticketColumns+` ORDER BY prefix, seq`)
		if err != nil {
			return err
		}
		defer rows.Close()

		byID := make(map[string]*ticket.Ticket)
		for rows.Next() {
			t, err := scanTicket(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
			byID[t.ID] = t
		}
		if err := rows.Err(); err != nil {
			return err
		}

		hrows, err := tx.QueryContext(ctx, historyColumns+` ORDER BY ticket_id, position`)
		if err != nil {
			return err
		}
		defer hrows.Close()
		for hrows.Next() {
			ticketID, h, err := scanHistory(hrows)
			if err != nil {
				return err
			}
			if t, ok := byID[ticketID]; ok {
				t.History = append(t.History, h)
			}
		}
		return hrows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*ticket.Ticket{}
	}
	return out, nil
}

// Update applies fn to the stored ticket inside a single transaction
func (b *SQLiteBackend) Update(ctx context.Context, id string, fn func(*ticket.Ticket) error) (*ticket.Ticket, error) {
	var updated *ticket.Ticket
	err := b.withTx(ctx, "update", func(tx *sql.Tx) error {
		t, err := getTicket(ctx, tx, id)
		if err != nil {
			return err
		}
		stored := len(t.History)

		if err := fn(t); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE tickets
			SET title = ?, status = ?, branch = ?, assignee = ?, blocker_reason = ?, updated_at = ?
			WHERE id = ?`,
			t.Title, string(t.Status), t.Branch, t.Assignee, t.BlockerReason,
			t.UpdatedAt.UTC().Format(timeLayout), id,
		)
		if err != nil {
			return err
		}
		if len(t.History) > stored {
			if err := insertHistory(ctx, tx, id, t.History[stored:], stored); err != nil {
				return err
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// withTx runs fn in a transaction, committing on success. Errors that are
// not already typed become StorageErrors.
func (b *SQLiteBackend) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ticket.NewStorageError(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return ticket.NewStorageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return ticket.NewStorageError(op, err)
	}
	return nil
}

const ticketColumns = `SELECT id, title, kind, status, branch, assignee, blocker_reason, created_at, updated_at FROM tickets`

const historyColumns = `SELECT ticket_id, id, from_status, to_status, at, note FROM ticket_history`

type rowScanner interface {
	Scan(dest ...any) error
}

func getTicket(ctx context.Context, tx *sql.Tx, id string) (*ticket.Ticket, error) {
	t, err := scanTicket(tx.QueryRowContext(ctx, ticketColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ticket.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, historyColumns+` WHERE ticket_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		_, h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		t.History = append(t.History, h)
	}
	return t, rows.Err()
}

func scanTicket(row rowScanner) (*ticket.Ticket, error) {
	var (
		t                  ticket.Ticket
		kind, status       string
		created, updatedAt string
	)
	if err := row.Scan(&t.ID, &t.Title, &kind, &status, &t.Branch, &t.Assignee, &t.BlockerReason, &created, &updatedAt); err != nil {
		return nil, err
	}
	t.Kind = ticket.Kind(kind)
	t.Status = ticket.Status(status)

	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("corrupt created_at for %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at for %s: %w", t.ID, err)
	}
	return &t, nil
}

func scanHistory(row rowScanner) (string, ticket.HistoryEntry, error) {
	var (
		ticketID, from, to, at string
		h                      ticket.HistoryEntry
	)
	if err := row.Scan(&ticketID, &h.ID, &from, &to, &at, &h.Note); err != nil {
		return "", h, err
	}
	h.From = ticket.Status(from)
	h.To = ticket.Status(to)

	var err error
	if h.At, err = time.Parse(timeLayout, at); err != nil {
		return "", h, fmt.Errorf("corrupt history timestamp for %s: %w", ticketID, err)
	}
	return ticketID, h, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, ticketID string, entries []ticket.HistoryEntry, offset int) error {
	for i, h := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ticket_history (id, ticket_id, position, from_status, to_status, at, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			h.ID, ticketID, offset+i, string(h.From), string(h.To), h.At.UTC().Format(timeLayout), h.Note,
		)
		if err != nil {
			return fmt.Errorf("failed to record history for %s: %w", ticketID, err)
		}
	}
	return nil
}
