package store

import (
	"context"

	"github.com/ohare93/pg/internal/ticket"
)

// Allocator issues ticket IDs of the form PREFIX-N from persisted counters
type Allocator struct {
	counter Counter
}

// NewAllocator creates an allocator backed by the given counter
func NewAllocator(counter Counter) *Allocator {
	return &Allocator{counter: counter}
}

// Allocate returns the next unused ID for prefix. Concurrent callers never
// receive the same ID because the counter increment is a single atomic
// read-modify-write in the backend.
func (a *Allocator) Allocate(ctx context.Context, prefix string) (string, error) {
	if err := ticket.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	n, err := a.counter.NextSeq(ctx, prefix)
	if err != nil {
		return "", ticket.NewStorageError("allocate", err)
	}
	return ticket.FormatID(prefix, n), nil
}
