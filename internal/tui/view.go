package tui

import (
	"fmt"
	"strings"

	"github.com/ohare93/pg/internal/report"
)

func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("pg board  %s", m.store.Path())
	if !m.showAll {
		title += "  (open tickets)"
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	if len(m.visible) == 0 {
		b.WriteString("No tickets. Create one with: pg ticket create <title> --type task\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString("\n" + renderSummary(report.Summarize(m.tickets)) + "\n")

	switch {
	case m.mode == blockPromptView:
		b.WriteString(promptStyle.Render("Block "+m.blockingID+": ") + m.reasonInput.View() + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.message != "":
		b.WriteString(messageStyle.Render(m.message) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func renderSummary(s report.Summary) string {
	parts := make([]string, 0, len(s.Counts)+1)
	for _, c := range s.Counts {
		parts = append(parts, StatusStyle(c.Status).Render(fmt.Sprintf("%s %d", c.Status, c.Count)))
	}
	parts = append(parts, fmt.Sprintf("total %d", s.Total))
	return strings.Join(parts, "  ")
}
