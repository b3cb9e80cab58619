package ticket

// Edge is one legal status transition
type Edge struct {
	From Status
	To   Status
}

// edges is the complete transition graph. Anything not listed is illegal.
var edges = []Edge{
	{StatusPending, StatusInProgress},
	{StatusInProgress, StatusBlocked},
	{StatusInProgress, StatusCompleted},
	{StatusInProgress, StatusCancelled},
	{StatusBlocked, StatusInProgress},
	{StatusBlocked, StatusCancelled},
	{StatusPending, StatusCancelled},
}

// Edges returns a copy of the transition graph
func Edges() []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// IsLegal reports whether from -> to is in the transition graph
func IsLegal(from, to Status) bool {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Allowed lists the statuses reachable from s in one transition
func Allowed(from Status) []Status {
	var out []Status
	for _, e := range edges {
		if e.From == from {
			out = append(out, e.To)
		}
	}
	return out
}

// CheckStatusChange reports whether t may move from its current status to
// target: terminal tickets never move, and every other move must be an edge.
func CheckStatusChange(t *Ticket, target Status) error {
	if t.Status.IsTerminal() {
		return &TerminalStateError{ID: t.ID, Status: t.Status, Requested: target}
	}
	if !IsLegal(t.Status, target) {
		return &IllegalTransitionError{ID: t.ID, From: t.Status, To: target}
	}
	return nil
}
