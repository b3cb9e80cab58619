package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ohare93/pg/internal/ticket"
)

var fixedTime = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

func sampleTickets() []*ticket.Ticket {
	return []*ticket.Ticket{
		{
			ID: "PROJ-1", Title: "Add login", Kind: ticket.KindFeature, Status: ticket.StatusInProgress,
			Branch: "feature/PROJ-1", Assignee: "alice", CreatedAt: fixedTime, UpdatedAt: fixedTime.Add(time.Hour),
		},
		{
			ID: "PROJ-2", Title: "Crash on save", Kind: ticket.KindBugfix, Status: ticket.StatusPending,
			CreatedAt: fixedTime, UpdatedAt: fixedTime,
		},
		{
			ID: "PROJ-10", Title: "Waiting", Kind: ticket.KindTask, Status: ticket.StatusBlocked,
			Branch: "task/PROJ-10", BlockerReason: "vendor", CreatedAt: fixedTime, UpdatedAt: fixedTime,
		},
	}
}

func TestRender_Table(t *testing.T) {
	got, err := Render(sampleTickets(), FormatTable)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := strings.Join([]string{
		"ID      | Title         | Type    | Status      | Branch         | Assignee",
		"--------+---------------+---------+-------------+----------------+---------",
		"PROJ-1  | Add login     | feature | IN_PROGRESS | feature/PROJ-1 | alice",
		"PROJ-2  | Crash on save | bugfix  | PENDING     | -              | -",
		"PROJ-10 | Waiting       | task    | BLOCKED     | task/PROJ-10   | -",
		"",
	}, "\n")
	if got != want {
		t.Errorf("Render(table) =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_TableEmpty(t *testing.T) {
	got, err := Render(nil, FormatTable)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("empty table has %d lines, want header and rule:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "ID | Title | Type") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestRender_TruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("é", 60)
	tickets := []*ticket.Ticket{{ID: "PROJ-1", Title: long, Kind: ticket.KindTask, Status: ticket.StatusPending}}

	got, err := Render(tickets, FormatTable)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := strings.Repeat("é", MaxTitleWidth-1) + "…"
	if !strings.Contains(got, want+" | task") {
		t.Errorf("title not truncated to %d runes:\n%s", MaxTitleWidth, got)
	}
}

func TestRender_OneLinePerTicket(t *testing.T) {
	tickets := []*ticket.Ticket{
		{ID: "PROJ-1", Title: "first line\nsecond line", Kind: ticket.KindTask, Status: ticket.StatusPending, Assignee: "al\tice"},
		{ID: "PROJ-2", Title: "Other", Kind: ticket.KindTask, Status: ticket.StatusPending},
	}

	got, err := Render(tickets, FormatTable)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("table has %d lines, want 4:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[2], "first line second line") || !strings.HasSuffix(lines[2], "al ice") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestRender_WideTitlesAlign(t *testing.T) {
	tickets := []*ticket.Ticket{
		{ID: "PROJ-1", Title: "日本語", Kind: ticket.KindTask, Status: ticket.StatusPending},
		{ID: "PROJ-2", Title: "abc", Kind: ticket.KindTask, Status: ticket.StatusPending},
	}

	got, err := Render(tickets, FormatTable)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

	// The Type column starts at the same terminal column on every line
	col := func(line, marker string) int {
		i := strings.Index(line, marker)
		if i < 0 {
			t.Fatalf("%q not found in %q", marker, line)
		}
		return Width(line[:i])
	}
	want := col(lines[0], " | Type")
	for _, line := range lines[2:] {
		if c := col(line, " | task"); c != want {
			t.Errorf("Type column at %d, want %d in %q", c, want, line)
		}
	}
}

func TestTruncate_WideRunes(t *testing.T) {
	got := Truncate(strings.Repeat("日", 30), MaxTitleWidth)
	if want := strings.Repeat("日", 23) + "…"; got != want {
		t.Errorf("Truncate() = %q, want %q", got, want)
	}
	if w := Width(got); w > MaxTitleWidth {
		t.Errorf("Width() = %d, want at most %d", w, MaxTitleWidth)
	}
	if got := Truncate("short", MaxTitleWidth); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
}

func TestRender_JSON(t *testing.T) {
	got, err := Render(sampleTickets()[:1], FormatJSON)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `[
  {
    "id": "PROJ-1",
    "title": "Add login",
    "kind": "feature",
    "status": "IN_PROGRESS",
    "branch": "feature/PROJ-1",
    "assignee": "alice",
    "blocker_reason": "",
    "created_at": "2026-04-02T10:30:00Z",
    "updated_at": "2026-04-02T11:30:00Z"
  }
]
`
	if got != want {
		t.Errorf("Render(json) =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_JSONEmpty(t *testing.T) {
	for _, in := range [][]*ticket.Ticket{nil, {}} {
		got, err := Render(in, FormatJSON)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if got != "[]\n" {
			t.Errorf("Render(empty) = %q, want []", got)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	for _, f := range []Format{FormatTable, FormatJSON} {
		first, err := Render(sampleTickets(), f)
		if err != nil {
			t.Fatalf("Render(%s) error = %v", f, err)
		}
		for i := 0; i < 5; i++ {
			again, _ := Render(sampleTickets(), f)
			if again != first {
				t.Fatalf("Render(%s) not byte-identical on repeat", f)
			}
		}
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(sampleTickets(), Format("csv"))
	var verr *ticket.ValidationError
	if !errors.As(err, &verr) || verr.Field != "format" {
		t.Errorf("Render(csv) error = %v, want format ValidationError", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" json ", FormatJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderDetail(t *testing.T) {
	tk := sampleTickets()[2]
	tk.History = []ticket.HistoryEntry{
		{ID: "a", From: ticket.StatusPending, To: ticket.StatusInProgress, At: fixedTime},
		{ID: "b", From: ticket.StatusInProgress, To: ticket.StatusBlocked, At: fixedTime.Add(time.Minute), Note: "vendor"},
	}

	text, err := RenderDetail(tk, FormatTable)
	if err != nil {
		t.Fatalf("RenderDetail() error = %v", err)
	}
	for _, want := range []string{
		"ID:       PROJ-10",
		"Blocked:  vendor",
		"Assignee: -",
		"History:",
		"2026-04-02T10:31:00Z  IN_PROGRESS -> BLOCKED  vendor",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("detail missing %q:\n%s", want, text)
		}
	}

	raw, err := RenderDetail(tk, FormatJSON)
	if err != nil {
		t.Fatalf("RenderDetail(json) error = %v", err)
	}
	var decoded struct {
		ID      string `json:"id"`
		History []struct {
			To string `json:"to"`
		} `json:"history"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("detail JSON does not parse: %v", err)
	}
	if decoded.ID != "PROJ-10" || len(decoded.History) != 2 || decoded.History[1].To != "BLOCKED" {
		t.Errorf("decoded detail = %+v", decoded)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTickets())

	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}
	if len(s.Counts) != len(ticket.Statuses) {
		t.Fatalf("Counts has %d statuses, want %d", len(s.Counts), len(ticket.Statuses))
	}
	for i, c := range s.Counts {
		if c.Status != ticket.Statuses[i] {
			t.Errorf("Counts[%d] = %s, want lifecycle order %s", i, c.Status, ticket.Statuses[i])
		}
	}
	if s.Count(ticket.StatusPending) != 1 || s.Count(ticket.StatusCompleted) != 0 {
		t.Errorf("counts = %+v", s.Counts)
	}
}

func TestRenderSummary(t *testing.T) {
	s := Summarize(sampleTickets())

	got, err := RenderSummary(s, FormatJSON)
	if err != nil {
		t.Fatalf("RenderSummary(json) error = %v", err)
	}
	want := `{
  "counts": {
    "PENDING": 1,
    "IN_PROGRESS": 1,
    "BLOCKED": 1,
    "COMPLETED": 0,
    "CANCELLED": 0
  },
  "total": 3
}
`
	if got != want {
		t.Errorf("RenderSummary(json) =\n%s\nwant\n%s", got, want)
	}

	table, err := RenderSummary(s, FormatTable)
	if err != nil {
		t.Fatalf("RenderSummary(table) error = %v", err)
	}
	if !strings.Contains(table, "COMPLETED   | 0") || !strings.Contains(table, "TOTAL       | 3") {
		t.Errorf("RenderSummary(table) =\n%s", table)
	}
}
