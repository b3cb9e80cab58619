// Package engine enforces the ticket status lifecycle. Every status change
// goes through Engine.Transition, which checks the legal edge table and the
// per-edge field requirements before handing an atomic mutation to the
// store.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ohare93/pg/internal/store"
	"github.com/ohare93/pg/internal/ticket"
)

// Edge is one legal status transition
type Edge = ticket.Edge

// Edges returns a copy of the transition graph
func Edges() []Edge { return ticket.Edges() }

// IsLegal reports whether from -> to is in the transition graph
func IsLegal(from, to ticket.Status) bool { return ticket.IsLegal(from, to) }

// Allowed lists the statuses reachable from s in one transition
func Allowed(from ticket.Status) []ticket.Status { return ticket.Allowed(from) }

// Fields carries the extra values a transition may set
type Fields struct {
	Branch        string  // Required for PENDING -> IN_PROGRESS
	BlockerReason string  // Required for -> BLOCKED
	Assignee      *string // Optional; nil leaves the assignee unchanged
	Note          string  // Optional; recorded in the ticket history
}

// Engine applies status transitions through a store
type Engine struct {
	store *store.Store
	newID func() string
}

// New creates an engine over the given store
func New(s *store.Store) *Engine {
	return &Engine{
		store: s,
		newID: func() string { return uuid.New().String() },
	}
}

// Transition moves ticket id to target, enforcing the edge table and field
// requirements. On any error the stored ticket is left unchanged.
func (e *Engine) Transition(ctx context.Context, id string, target ticket.Status, fields Fields) (*ticket.Ticket, error) {
	if !target.Valid() {
		return nil, &ticket.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	return e.store.Apply(ctx, id, func(t *ticket.Ticket) error {
		return e.apply(t, target, fields)
	})
}

// Assign changes the assignee without a status change. Terminal tickets
// cannot be reassigned.
func (e *Engine) Assign(ctx context.Context, id, assignee string) (*ticket.Ticket, error) {
	assignee = strings.TrimSpace(assignee)
	return e.store.Apply(ctx, id, func(t *ticket.Ticket) error {
		if t.Status.IsTerminal() {
			return &ticket.TerminalStateError{ID: t.ID, Status: t.Status}
		}
		t.Assignee = assignee
		return nil
	})
}

// Check validates a transition against the ticket's current state without
// persisting anything
func Check(t *ticket.Ticket, target ticket.Status, fields Fields) error {
	return checkTransition(t, target, fields)
}

func (e *Engine) apply(t *ticket.Ticket, target ticket.Status, fields Fields) error {
	if err := checkTransition(t, target, fields); err != nil {
		return err
	}

	from := t.Status
	branch := strings.TrimSpace(fields.Branch)

	switch target {
	case ticket.StatusInProgress:
		if branch != "" {
			t.Branch = branch
		}
		t.BlockerReason = ""
	case ticket.StatusBlocked:
		t.BlockerReason = strings.TrimSpace(fields.BlockerReason)
	case ticket.StatusCompleted:
		t.BlockerReason = ""
	case ticket.StatusCancelled:
		t.BlockerReason = ""
		t.Branch = ""
	}
	t.Status = target

	if fields.Assignee != nil {
		t.Assignee = strings.TrimSpace(*fields.Assignee)
	}

	t.History = append(t.History, ticket.HistoryEntry{
		ID:   e.newID(),
		From: from,
		To:   target,
		At:   e.store.Now(),
		Note: strings.TrimSpace(fields.Note),
	})
	return nil
}

// checkTransition applies the checks in order: terminal state, edge table,
// then field requirements
func checkTransition(t *ticket.Ticket, target ticket.Status, fields Fields) error {
	if !target.Valid() {
		return &ticket.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}
	if err := ticket.CheckStatusChange(t, target); err != nil {
		return err
	}

	branch := strings.TrimSpace(fields.Branch)
	reason := strings.TrimSpace(fields.BlockerReason)

	if branch != "" && target != ticket.StatusInProgress {
		return &ticket.ValidationError{Field: "branch", Reason: fmt.Sprintf("can only be set when moving to %s", ticket.StatusInProgress)}
	}
	if reason != "" && target != ticket.StatusBlocked {
		return &ticket.ValidationError{Field: "blocker_reason", Reason: fmt.Sprintf("can only be set when moving to %s", ticket.StatusBlocked)}
	}

	switch {
	case t.Status == ticket.StatusPending && target == ticket.StatusInProgress && branch == "":
		return &ticket.ValidationError{Field: "branch", Reason: fmt.Sprintf("is required to start %s", t.ID)}
	case target == ticket.StatusBlocked && reason == "":
		return &ticket.ValidationError{Field: "blocker_reason", Reason: fmt.Sprintf("is required to block %s", t.ID)}
	}
	return nil
}

// BranchName returns the conventional branch for a ticket, e.g.
// "feature/PROJ-1"
func BranchName(t *ticket.Ticket) string {
	return fmt.Sprintf("%s/%s", t.Kind, t.ID)
}
