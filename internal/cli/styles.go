package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ohare93/pg/internal/ticket"
	"github.com/ohare93/pg/internal/tui"
)

// useColor reports whether command output goes straight to a terminal.
// Piped and captured output stays plain so scripts see the exact report.
func useColor(cmd *cobra.Command) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorRows tints the data rows of a rendered table, one status per row
// after the header and rule lines. An empty status leaves its row plain.
func colorRows(table string, statuses []ticket.Status) string {
	lines := strings.Split(strings.TrimSuffix(table, "\n"), "\n")
	for i, st := range statuses {
		idx := i + 2
		if idx >= len(lines) {
			break
		}
		if st != "" {
			lines[idx] = tui.StatusStyle(st).Render(lines[idx])
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
