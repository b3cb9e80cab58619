package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/store"
	"github.com/ohare93/pg/internal/ticket"
)

func newTestBoard(t *testing.T, titles ...string) (Model, *store.Store) {
	t.Helper()

	s, err := store.Open(context.Background(), store.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for _, title := range titles {
		if _, err := s.Create(context.Background(), ticket.KindTask, title, ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	m := New(s, engine.New(s), nil)
	return send(t, m, loadTickets(s)()), s
}

// send feeds msg to the model and returns the updated model
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs the resulting command once, feeding its
// message back into the model. Commands from the open prompt only drive
// cursor blinking and are skipped.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	if cmd == nil || m.mode == blockPromptView {
		return m
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(transitionDoneMsg); ok {
			m = send(t, m, msg)
			return send(t, m, loadTickets(m.store)())
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func status(t *testing.T, s *store.Store, id string) *ticket.Ticket {
	t.Helper()
	got, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return got
}

func TestBoard_LoadsTickets(t *testing.T) {
	m, _ := newTestBoard(t, "one", "two")

	if len(m.visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(m.visible))
	}
	if m.selectedID() != "PROJ-1" {
		t.Errorf("selected = %q, want PROJ-1", m.selectedID())
	}

	view := m.View()
	for _, want := range []string{"PROJ-1", "PROJ-2", "PENDING 2", "total 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBoard_EmptyStore(t *testing.T) {
	m, _ := newTestBoard(t)
	if !strings.Contains(m.View(), "No tickets") {
		t.Errorf("empty board should say so:\n%s", m.View())
	}
	// Actions on an empty board are no-ops
	m = press(t, m, runes("s"))
	if m.err != nil {
		t.Errorf("err = %v, want nil", m.err)
	}
}

func TestBoard_StartUsesConventionalBranch(t *testing.T) {
	m, s := newTestBoard(t, "one")

	m = press(t, m, runes("s"))
	if m.err != nil {
		t.Fatalf("start failed: %v", m.err)
	}

	got := status(t, s, "PROJ-1")
	if got.Status != ticket.StatusInProgress || got.Branch != "task/PROJ-1" {
		t.Errorf("ticket = %s on %q, want IN_PROGRESS on task/PROJ-1", got.Status, got.Branch)
	}
	if !strings.Contains(m.message, "PROJ-1 is now IN_PROGRESS") {
		t.Errorf("message = %q", m.message)
	}
}

func TestBoard_BlockPrompt(t *testing.T) {
	m, s := newTestBoard(t, "one")

	// PENDING cannot be blocked, so no prompt opens
	m = press(t, m, runes("b"))
	if m.mode != boardView || m.err == nil {
		t.Fatalf("blocking a pending ticket: mode=%v err=%v", m.mode, m.err)
	}

	m = press(t, m, runes("s"))
	m = press(t, m, runes("b"))
	if m.mode != blockPromptView {
		t.Fatalf("mode = %v, want block prompt", m.mode)
	}
	for _, r := range "vendor" {
		m = press(t, m, runes(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != boardView {
		t.Errorf("prompt should close after submit")
	}
	got := status(t, s, "PROJ-1")
	if got.Status != ticket.StatusBlocked || got.BlockerReason != "vendor" {
		t.Errorf("ticket = %s (%q), want BLOCKED (vendor)", got.Status, got.BlockerReason)
	}

	// Unblock through start
	m = press(t, m, runes("s"))
	if got := status(t, s, "PROJ-1"); got.Status != ticket.StatusInProgress {
		t.Errorf("after unblock status = %s", got.Status)
	}
}

func TestBoard_BlockPromptDismiss(t *testing.T) {
	m, s := newTestBoard(t, "one")
	m = press(t, m, runes("s"))
	m = press(t, m, runes("b"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != boardView {
		t.Errorf("esc should close the prompt")
	}
	if got := status(t, s, "PROJ-1"); got.Status != ticket.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", got.Status)
	}
}

func TestBoard_ClosedTicketsHidden(t *testing.T) {
	m, _ := newTestBoard(t, "one", "two")

	m = press(t, m, runes("x"))
	if len(m.visible) != 1 || m.visible[0].ID != "PROJ-2" {
		t.Fatalf("visible after cancel = %v", ids(m.visible))
	}

	m = press(t, m, runes("a"))
	if len(m.visible) != 2 {
		t.Errorf("show all: visible = %v, want both", ids(m.visible))
	}
}

func TestBoard_IllegalActionShowsError(t *testing.T) {
	m, s := newTestBoard(t, "one")

	m = press(t, m, runes("c"))
	if m.err == nil {
		t.Fatal("completing a pending ticket should fail")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("view should show the error:\n%s", m.View())
	}
	if got := status(t, s, "PROJ-1"); got.Status != ticket.StatusPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
}

func TestBoard_Quit(t *testing.T) {
	m, _ := newTestBoard(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command should produce tea.QuitMsg")
	}
}

func TestStatusStyle(t *testing.T) {
	for _, st := range ticket.Statuses {
		if out := StatusStyle(st).Render(string(st)); !strings.Contains(out, string(st)) {
			t.Errorf("StatusStyle(%s) lost the text: %q", st, out)
		}
	}
}

func ids(tickets []*ticket.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}
