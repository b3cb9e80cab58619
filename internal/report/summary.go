package report

import (
	"encoding/json"
	"strconv"

	"github.com/ohare93/pg/internal/ticket"
)

// StatusCount is the number of tickets in one status
type StatusCount struct {
	Status ticket.Status
	Count  int
}

// Summary holds per-status counts in lifecycle order
type Summary struct {
	Counts []StatusCount
	Total  int
}

// Summarize counts tickets per status. Every status is present, even with a
// zero count.
func Summarize(tickets []*ticket.Ticket) Summary {
	byStatus := make(map[ticket.Status]int, len(ticket.Statuses))
	for _, t := range tickets {
		byStatus[t.Status]++
	}

	s := Summary{Counts: make([]StatusCount, 0, len(ticket.Statuses))}
	for _, st := range ticket.Statuses {
		s.Counts = append(s.Counts, StatusCount{Status: st, Count: byStatus[st]})
	}
	s.Total = len(tickets)
	return s
}

// Count returns the number of tickets in status st
func (s Summary) Count(st ticket.Status) int {
	for _, c := range s.Counts {
		if c.Status == st {
			return c.Count
		}
	}
	return 0
}

// MarshalJSON keeps the lifecycle order that a plain map would lose
func (s Summary) MarshalJSON() ([]byte, error) {
	buf := []byte(`{"counts":{`)
	for i, c := range s.Counts {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(string(c.Status))
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(c.Count), 10)
	}
	buf = append(buf, `},"total":`...)
	buf = strconv.AppendInt(buf, int64(s.Total), 10)
	buf = append(buf, '}')
	return buf, nil
}

// RenderSummary formats a summary as a two-column table or JSON
func RenderSummary(s Summary, format Format) (string, error) {
	switch format {
	case FormatTable:
		rows := make([][]string, 0, len(s.Counts)+1)
		for _, c := range s.Counts {
			rows = append(rows, []string{string(c.Status), strconv.Itoa(c.Count)})
		}
		rows = append(rows, []string{"TOTAL", strconv.Itoa(s.Total)})
		return table([]string{"Status", "Count"}, rows), nil
	case FormatJSON:
		return marshal(s)
	}
	return "", unknownFormat(format)
}
