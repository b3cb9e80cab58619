// Package report renders ticket collections for people and machines.
// Every function here is pure: the same tickets in the same format always
// produce byte-identical output.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/ohare93/pg/internal/ticket"
)

// Format selects an output rendering
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// MaxTitleWidth is the widest a title cell may be in table output
const MaxTitleWidth = 48

const emptyCell = "-"

// cellWidth measures terminal cells. East Asian ambiguous runes count as one
// column regardless of the locale so output stays byte-identical everywhere.
var cellWidth = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

var tableHeader = []string{"ID", "Title", "Type", "Status", "Branch", "Assignee"}

// ParseFormat converts a user supplied format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatJSON:
		return f, nil
	}
	return "", unknownFormat(s)
}

func unknownFormat(f any) error {
	return &ticket.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown format %q (must be table or json)", f)}
}

// Render formats tickets in the given format. Tickets are rendered in the
// order given.
func Render(tickets []*ticket.Ticket, format Format) (string, error) {
	switch format {
	case FormatTable:
		return renderTable(tickets), nil
	case FormatJSON:
		return renderJSON(tickets)
	}
	return "", unknownFormat(format)
}

// Cells returns the table cells for one ticket in header order
func Cells(t *ticket.Ticket) []string {
	return []string{
		cell(t.ID),
		Truncate(cell(t.Title), MaxTitleWidth),
		cell(string(t.Kind)),
		cell(string(t.Status)),
		cell(t.Branch),
		cell(t.Assignee),
	}
}

// Header returns the table column names
func Header() []string {
	out := make([]string, len(tableHeader))
	copy(out, tableHeader)
	return out
}

// cell flattens s onto one line: runs of whitespace and control characters
// become a single space
func cell(s string) string {
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
	if s == "" {
		return emptyCell
	}
	return s
}

// Truncate shortens s to at most max terminal columns, marking the cut with
// an ellipsis. Wide runes such as CJK count as two columns.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return cellWidth.Truncate(s, max, "…")
}

// Width returns the number of terminal columns s occupies
func Width(s string) int {
	return cellWidth.StringWidth(s)
}

func renderTable(tickets []*ticket.Ticket) string {
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, Cells(t))
	}
	return table(tableHeader, rows)
}

// table lays out rows under header with columns padded to the widest cell
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = Width(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if w := Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow(&b, header, widths)

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	b.WriteString(strings.Join(rule, "-+-"))
	b.WriteString("\n")

	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(c)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-Width(c)))
		}
	}
	b.WriteString("\n")
}

// ticketJSON is the wire shape of a ticket in JSON output. History is left
// out of list output and carried by TicketDetail instead.
type ticketJSON struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Branch        string `json:"branch"`
	Assignee      string `json:"assignee"`
	BlockerReason string `json:"blocker_reason"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toJSON(t *ticket.Ticket) ticketJSON {
	return ticketJSON{
		ID:            t.ID,
		Title:         t.Title,
		Kind:          string(t.Kind),
		Status:        string(t.Status),
		Branch:        t.Branch,
		Assignee:      t.Assignee,
		BlockerReason: t.BlockerReason,
		CreatedAt:     timestamp(t.CreatedAt),
		UpdatedAt:     timestamp(t.UpdatedAt),
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func renderJSON(tickets []*ticket.Ticket) (string, error) {
	out := make([]ticketJSON, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toJSON(t))
	}
	return marshal(out)
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}
