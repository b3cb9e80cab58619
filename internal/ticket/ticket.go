package ticket

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Kind categorizes the work a ticket tracks
type Kind string

const (
	KindFeature Kind = "feature"
	KindBugfix  Kind = "bugfix"
	KindHotfix  Kind = "hotfix"
	KindTask    Kind = "task"
	KindEpic    Kind = "epic"
)

// Kinds lists every kind in display order
var Kinds = []Kind{KindFeature, KindBugfix, KindHotfix, KindTask, KindEpic}

// Status represents the lifecycle state of a ticket
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusBlocked    Status = "BLOCKED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{StatusPending, StatusInProgress, StatusBlocked, StatusCompleted, StatusCancelled}

// IsTerminal reports whether no further transitions are accepted from s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// HistoryEntry records one status transition
type HistoryEntry struct {
	ID   string    `json:"id" yaml:"id"`
	From Status    `json:"from" yaml:"from"`
	To   Status    `json:"to" yaml:"to"`
	At   time.Time `json:"at" yaml:"at"`
	Note string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// Ticket represents a trackable unit of work
type Ticket struct {
	ID            string         `json:"id" yaml:"id"`
	Title         string         `json:"title" yaml:"title"`
	Kind          Kind           `json:"kind" yaml:"kind"`
	Status        Status         `json:"status" yaml:"status"`
	Branch        string         `json:"branch,omitempty" yaml:"branch,omitempty"`
	Assignee      string         `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	BlockerReason string         `json:"blocker_reason,omitempty" yaml:"blocker_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" yaml:"updated_at"`
	History       []HistoryEntry `json:"history,omitempty" yaml:"history,omitempty"`
}

// New creates a pending ticket with the given ID. The caller supplies the
// creation time so that stores can use an injected clock.
func New(id string, kind Kind, title, assignee string, now time.Time) (*Ticket, error) {
	title = strings.TrimSpace(title)
	assignee = strings.TrimSpace(assignee)
	if err := checkText(title, assignee); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q (must be one of %s)", kind, joinKinds())}
	}
	if _, _, err := ParseID(id); err != nil {
		return nil, err
	}

	return &Ticket{
		ID:        id,
		Title:     title,
		Kind:      kind,
		Status:    StatusPending,
		Assignee:  assignee,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Clone returns a deep copy of the ticket
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	if t.History != nil {
		c.History = make([]HistoryEntry, len(t.History))
		copy(c.History, t.History)
	}
	return &c
}

// Touch refreshes the update timestamp
func (t *Ticket) Touch(now time.Time) {
	t.UpdatedAt = now
}

// Validate checks the field invariants that must hold for every stored ticket
func (t *Ticket) Validate() error {
	if _, _, err := ParseID(t.ID); err != nil {
		return err
	}
	if err := checkText(t.Title, t.Assignee); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	if !t.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", t.Status)}
	}
	if (t.Status == StatusBlocked) != (t.BlockerReason != "") {
		return &ValidationError{Field: "blocker_reason", Reason: "must be set if and only if status is BLOCKED"}
	}
	switch t.Status {
	case StatusPending, StatusCancelled:
		if t.Branch != "" {
			return &ValidationError{Field: "branch", Reason: fmt.Sprintf("must be empty while %s", t.Status)}
		}
	case StatusInProgress, StatusBlocked, StatusCompleted:
		if t.Branch == "" {
			return &ValidationError{Field: "branch", Reason: fmt.Sprintf("is required while %s", t.Status)}
		}
	}
	return nil
}

// checkText rejects a blank title, and control characters such as newlines
// in the title or assignee. Both are rendered on a single table row.
func checkText(title, assignee string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return &ValidationError{Field: "title", Reason: "must be a single line without control characters"}
	}
	if strings.IndexFunc(assignee, unicode.IsControl) >= 0 {
		return &ValidationError{Field: "assignee", Reason: "must not contain control characters"}
	}
	return nil
}

// ParseKind parses a kind name case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q (must be one of %s)", s, joinKinds())}
	}
	return k, nil
}

// ParseStatus parses a status name. Matching ignores case and treats
// '-' and ' ' as '_', so "in-progress" and "In Progress" both work.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	st := Status(norm)
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q (must be one of %s)", s, joinStatuses())}
	}
	return st, nil
}

func joinKinds() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, "|")
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, "|")
}
