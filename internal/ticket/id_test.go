package ticket

import (
	"sort"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		id         string
		wantPrefix string
		wantN      int
		wantErr    bool
	}{
		{"PROJ-1", "PROJ", 1, false},
		{"PG2-42", "PG2", 42, false},
		{"PROJ-0", "", 0, true},
		{"PROJ-01", "", 0, true},
		{"PROJ-", "", 0, true},
		{"-1", "", 0, true},
		{"proj-1", "", 0, true},
		{"PROJ1", "", 0, true},
		{"A-B-1", "", 0, true},
		{"PROJ--1", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			prefix, n, err := ParseID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if prefix != tt.wantPrefix || n != tt.wantN {
				t.Errorf("ParseID(%q) = (%q, %d), want (%q, %d)", tt.id, prefix, n, tt.wantPrefix, tt.wantN)
			}
			if FormatID(prefix, n) != tt.id {
				t.Errorf("FormatID(%q, %d) = %q", prefix, n, FormatID(prefix, n))
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	valid := []string{"PROJ", "A", "PG2", "ABCDEFGHIJKLMNOP"}
	for _, p := range valid {
		if err := ValidatePrefix(p); err != nil {
			t.Errorf("ValidatePrefix(%q) error = %v", p, err)
		}
	}

	invalid := []string{"", "proj", "2PG", "PR-J", "ABCDEFGHIJKLMNOPQ"}
	for _, p := range invalid {
		if err := ValidatePrefix(p); err == nil {
			t.Errorf("ValidatePrefix(%q) should fail", p)
		}
	}
}

func TestCompareIDs_NumericOrder(t *testing.T) {
	ids := []string{"PROJ-10", "PROJ-2", "ABC-3", "PROJ-1", "garbage"}
	sort.Slice(ids, func(i, j int) bool { return CompareIDs(ids[i], ids[j]) < 0 })

	want := []string{"ABC-3", "PROJ-1", "PROJ-2", "PROJ-10", "garbage"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", ids, want)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID(" proj-7 "); got != "PROJ-7" {
		t.Errorf("NormalizeID() = %q, want PROJ-7", got)
	}
}

func TestFilter_Apply(t *testing.T) {
	mk := func(id string, kind Kind, status Status) *Ticket {
		return &Ticket{ID: id, Kind: kind, Status: status}
	}
	all := []*Ticket{
		mk("PROJ-3", KindBugfix, StatusPending),
		mk("PROJ-1", KindFeature, StatusInProgress),
		mk("PROJ-2", KindFeature, StatusPending),
	}

	got := Filter{}.Apply(all)
	if len(got) != 3 || got[0].ID != "PROJ-1" || got[2].ID != "PROJ-3" {
		t.Errorf("empty filter should return all sorted, got %v", ids(got))
	}

	got = Filter{Statuses: []Status{StatusPending}}.Apply(all)
	if len(got) != 2 || got[0].ID != "PROJ-2" {
		t.Errorf("status filter got %v", ids(got))
	}

	got = Filter{Statuses: []Status{StatusPending}, Kinds: []Kind{KindFeature}}.Apply(all)
	if len(got) != 1 || got[0].ID != "PROJ-2" {
		t.Errorf("status+kind filter got %v", ids(got))
	}
}

func ids(tickets []*Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}
