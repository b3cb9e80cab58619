package ticket

import "sort"

// Filter selects tickets by status and kind. Empty slices match everything.
type Filter struct {
	Statuses []Status
	Kinds    []Kind
}

// Match reports whether t passes the filter
func (f Filter) Match(t *Ticket) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, t.Kind) {
		return false
	}
	return true
}

// Apply returns the matching tickets sorted by ID
func (f Filter) Apply(tickets []*Ticket) []*Ticket {
	out := make([]*Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	SortByID(out)
	return out
}

// SortByID orders tickets by prefix and numeric suffix, ascending
func SortByID(tickets []*Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return CompareIDs(tickets[i].ID, tickets[j].ID) < 0
	})
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsKind(list []Kind, k Kind) bool {
	for _, v := range list {
		if v == k {
			return true
		}
	}
	return false
}
