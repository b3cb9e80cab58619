package report

import (
	"fmt"
	"strings"

	"github.com/ohare93/pg/internal/ticket"
)

type historyJSON struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	At   string `json:"at"`
	Note string `json:"note,omitempty"`
}

type detailJSON struct {
	ticketJSON
	History []historyJSON `json:"history"`
}

// RenderDetail formats a single ticket together with its transition history
func RenderDetail(t *ticket.Ticket, format Format) (string, error) {
	switch format {
	case FormatTable:
		return renderDetailText(t), nil
	case FormatJSON:
		d := detailJSON{ticketJSON: toJSON(t), History: make([]historyJSON, 0, len(t.History))}
		for _, h := range t.History {
			d.History = append(d.History, historyJSON{
				ID:   h.ID,
				From: string(h.From),
				To:   string(h.To),
				At:   timestamp(h.At),
				Note: h.Note,
			})
		}
		return marshal(d)
	}
	return "", unknownFormat(format)
}

func renderDetailText(t *ticket.Ticket) string {
	var b strings.Builder

	fields := [][2]string{
		{"ID", t.ID},
		{"Title", t.Title},
		{"Type", string(t.Kind)},
		{"Status", string(t.Status)},
		{"Branch", t.Branch},
		{"Assignee", t.Assignee},
	}
	if t.Status == ticket.StatusBlocked {
		fields = append(fields, [2]string{"Blocked", t.BlockerReason})
	}
	fields = append(fields,
		[2]string{"Created", timestamp(t.CreatedAt)},
		[2]string{"Updated", timestamp(t.UpdatedAt)},
	)
	for _, f := range fields {
		fmt.Fprintf(&b, "%-9s %s\n", f[0]+":", cell(f[1]))
	}

	if len(t.History) == 0 {
		return b.String()
	}

	b.WriteString("\nHistory:\n")
	for _, h := range t.History {
		line := fmt.Sprintf("  %s  %s -> %s", timestamp(h.At), h.From, h.To)
		if h.Note != "" {
			line += "  " + h.Note
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
