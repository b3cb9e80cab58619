// Package tui implements the live ticket board shown by pg watch.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/report"
	"github.com/ohare93/pg/internal/store"
	"github.com/ohare93/pg/internal/ticket"
	"github.com/ohare93/pg/internal/watcher"
)

type mode int

const (
	boardView mode = iota
	blockPromptView
)

// Model is the bubbletea model of the board
type Model struct {
	store       *store.Store
	engine      *engine.Engine
	fileWatcher *watcher.Watcher
	keys        KeyMap
	help        help.Model

	mode    mode
	table   table.Model
	tickets []*ticket.Ticket // everything in the store
	visible []*ticket.Ticket // rows currently in the table
	showAll bool             // include COMPLETED and CANCELLED

	// Block prompt
	reasonInput textinput.Model
	blockingID  string

	width   int
	height  int
	message string
	err     error
}

// New creates a board over the given store. w may be nil, in which case the
// board only refreshes on demand.
func New(s *store.Store, e *engine.Engine, w *watcher.Watcher) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	ti.Placeholder = "why is this blocked?"

	t := table.New(
		table.WithColumns(columnsFor(nil)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.Bold(true)
	t.SetStyles(styles)

	return Model{
		store:       s,
		engine:      e,
		fileWatcher: w,
		keys:        DefaultKeyMap,
		help:        help.New(),
		table:       t,
		reasonInput: ti,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadTickets(m.store)}
	if m.fileWatcher != nil {
		cmds = append(cmds, listenForWatcherEvents(m.fileWatcher))
	}
	return tea.Batch(cmds...)
}

// Run shows the board until the user quits
func Run(s *store.Store, e *engine.Engine, w *watcher.Watcher) error {
	p := tea.NewProgram(New(s, e, w), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// columnsFor sizes the table columns to fit the given tickets
func columnsFor(tickets []*ticket.Ticket) []table.Column {
	header := report.Header()
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = report.Width(h)
	}
	for _, t := range tickets {
		for i, c := range report.Cells(t) {
			if w := report.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cols := make([]table.Column, len(header))
	for i, h := range header {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}

// setTickets replaces the board contents, keeping the cursor on the same
// ticket when it is still visible
func (m *Model) setTickets(tickets []*ticket.Ticket) {
	selected := m.selectedID()
	m.tickets = tickets

	m.visible = make([]*ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if m.showAll || !t.Status.IsTerminal() {
			m.visible = append(m.visible, t)
		}
	}

	rows := make([]table.Row, 0, len(m.visible))
	cursor := 0
	for i, t := range m.visible {
		rows = append(rows, table.Row(report.Cells(t)))
		if t.ID == selected {
			cursor = i
		}
	}

	m.table.SetColumns(columnsFor(m.visible))
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m Model) selectedID() string {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (m Model) selectedTicket() *ticket.Ticket {
	id := m.selectedID()
	for _, t := range m.visible {
		if t.ID == id {
			return t
		}
	}
	return nil
}
