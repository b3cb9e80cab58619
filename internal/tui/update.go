package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/ticket"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Title, summary, message and help lines
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case ticketsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setTickets(msg.tickets)
		return m, nil

	case transitionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.message = ""
			return m, nil
		}
		m.err = nil
		m.message = fmt.Sprintf("%s is now %s", msg.ticket.ID, msg.ticket.Status)
		return m, loadTickets(m.store)

	case watcherEventMsg:
		return m, tea.Batch(loadTickets(m.store), listenForWatcherEvents(m.fileWatcher))

	case watcherErrorMsg:
		m.err = fmt.Errorf("watcher: %w", msg.err)
		return m, listenForWatcherEvents(m.fileWatcher)

	case tea.KeyMsg:
		if m.mode == blockPromptView {
			return m.handlePromptKey(msg)
		}
		return m.handleBoardKey(msg)
	}

	return m, nil
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return m, loadTickets(m.store)

	case key.Matches(msg, m.keys.ShowAll):
		m.showAll = !m.showAll
		m.setTickets(m.tickets)
		return m, nil

	case key.Matches(msg, m.keys.Start):
		t := m.selectedTicket()
		if t == nil {
			return m, nil
		}
		var fields engine.Fields
		if t.Status == ticket.StatusPending {
			fields.Branch = engine.BranchName(t)
		}
		return m, transition(m.engine, t.ID, ticket.StatusInProgress, fields)

	case key.Matches(msg, m.keys.Block):
		t := m.selectedTicket()
		if t == nil {
			return m, nil
		}
		// Check the edge before asking for a reason nobody can use
		if err := engine.Check(t, ticket.StatusBlocked, engine.Fields{BlockerReason: "-"}); err != nil {
			m.err = err
			return m, nil
		}
		m.mode = blockPromptView
		m.blockingID = t.ID
		m.reasonInput.Reset()
		return m, m.reasonInput.Focus()

	case key.Matches(msg, m.keys.Complete):
		if t := m.selectedTicket(); t != nil {
			return m, transition(m.engine, t.ID, ticket.StatusCompleted, engine.Fields{})
		}
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if t := m.selectedTicket(); t != nil {
			return m, transition(m.engine, t.ID, ticket.StatusCancelled, engine.Fields{})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.mode = boardView
		m.reasonInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		id := m.blockingID
		reason := m.reasonInput.Value()
		m.mode = boardView
		m.reasonInput.Blur()
		return m, transition(m.engine, id, ticket.StatusBlocked, engine.Fields{BlockerReason: reason})
	}

	var cmd tea.Cmd
	m.reasonInput, cmd = m.reasonInput.Update(msg)
	return m, cmd
}
