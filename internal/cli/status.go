package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/report"
	"github.com/ohare93/pg/internal/ticket"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ticket counts per status",
	Long: `Show how many tickets are in each status, in lifecycle order, plus a total.

Examples:
  pg status
  pg status --json`,
	Args: exactArgs(0),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	tickets, err := env.store.List(commandContext(cmd), ticket.Filter{})
	if err != nil {
		return err
	}

	summary := report.Summarize(tickets)
	format := formatFlag(statusJSON)
	out, err := report.RenderSummary(summary, format)
	if err != nil {
		return err
	}
	if format == report.FormatTable && useColor(cmd) {
		statuses := make([]ticket.Status, len(summary.Counts))
		for i, c := range summary.Counts {
			statuses[i] = c.Status
		}
		out = colorRows(out, statuses)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
