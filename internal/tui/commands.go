package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/store"
	"github.com/ohare93/pg/internal/ticket"
	"github.com/ohare93/pg/internal/watcher"
)

type ticketsLoadedMsg struct {
	tickets []*ticket.Ticket
	err     error
}

func loadTickets(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		tickets, err := s.List(context.Background(), ticket.Filter{})
		return ticketsLoadedMsg{tickets: tickets, err: err}
	}
}

type transitionDoneMsg struct {
	ticket *ticket.Ticket
	err    error
}

func transition(e *engine.Engine, id string, target ticket.Status, fields engine.Fields) tea.Cmd {
	return func() tea.Msg {
		t, err := e.Transition(context.Background(), id, target, fields)
		return transitionDoneMsg{ticket: t, err: err}
	}
}

// Watcher event messages
type watcherEventMsg struct {
	event watcher.Event
}

type watcherErrorMsg struct {
	err error
}

// listenForWatcherEvents creates a command that listens for watcher events
func listenForWatcherEvents(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-w.Events:
			return watcherEventMsg{event: event}
		case err := <-w.Errors:
			return watcherErrorMsg{err: err}
		}
	}
}
