package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/report"
	"github.com/ohare93/pg/internal/ticket"
)

var ticketCmd = &cobra.Command{
	Use:     "ticket",
	Aliases: []string{"t"},
	Short:   "Create, move and inspect tickets",
	Args:    noSubcommandArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	createKind     string
	createAssignee string

	showJSON bool

	listStatuses string
	listKinds    string
	listJSON     bool
)

var ticketCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a PENDING ticket and print its ID",
	Long: `Create a new ticket in PENDING status. The new ID is printed on its own line.

Examples:
  pg ticket create "Add login" --type feature
  pg ticket create Fix crash on save --type bugfix --assignee alice`,
	Args: minimumArgs(1),
	RunE: runTicketCreate,
}

var ticketShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one ticket with its history",
	Args:  exactArgs(1),
	RunE:  runTicketShow,
}

var ticketAssignCmd = &cobra.Command{
	Use:   "assign <id> <who>",
	Short: `Change a ticket's assignee ("" clears it)`,
	Args:  exactArgs(2),
	RunE:  runTicketAssign,
}

var ticketTransitionsCmd = &cobra.Command{
	Use:   "transitions <id>",
	Short: "List the statuses a ticket can move to next",
	Args:  exactArgs(1),
	RunE:  runTicketTransitions,
}

var ticketListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tickets as a table or JSON",
	Long: `List tickets ordered by ID.

Examples:
  pg ticket list
  pg ticket list --status pending,in_progress
  pg ticket list --type bugfix,hotfix --json`,
	Args: exactArgs(0),
	RunE: runTicketList,
}

func init() {
	ticketCreateCmd.Flags().StringVarP(&createKind, "type", "t", "", "Ticket type: feature, bugfix, hotfix, task or epic (required)")
	ticketCreateCmd.Flags().StringVar(&createAssignee, "assignee", "", "Assign the ticket on creation")

	ticketShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output JSON")

	ticketListCmd.Flags().StringVar(&listStatuses, "status", "", "Only these statuses (comma-separated)")
	ticketListCmd.Flags().StringVar(&listKinds, "type", "", "Only these types (comma-separated)")
	ticketListCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON")

	ticketCmd.AddCommand(ticketCreateCmd)
	ticketCmd.AddCommand(ticketUpdateCmd)
	ticketCmd.AddCommand(ticketShowCmd)
	ticketCmd.AddCommand(ticketAssignCmd)
	ticketCmd.AddCommand(ticketTransitionsCmd)
	ticketCmd.AddCommand(ticketListCmd)
	for _, c := range shortcutCmds() {
		ticketCmd.AddCommand(c)
	}
	registerCompletions()
}

func runTicketCreate(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(createKind) == "" {
		return &ticket.ValidationError{Field: "type", Reason: "is required (--type feature|bugfix|hotfix|task|epic)"}
	}
	kind, err := ticket.ParseKind(createKind)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.Create(commandContext(cmd), kind, strings.Join(args, " "), createAssignee)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.ID)
	return nil
}

func runTicketShow(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.Get(commandContext(cmd), ticket.NormalizeID(args[0]))
	if err != nil {
		return err
	}

	out, err := report.RenderDetail(t, formatFlag(showJSON))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runTicketAssign(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.engine.Assign(commandContext(cmd), ticket.NormalizeID(args[0]), args[1])
	if err != nil {
		return err
	}
	if t.Assignee == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is unassigned\n", t.ID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s assigned to %s\n", t.ID, t.Assignee)
	}
	return nil
}

func runTicketTransitions(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	t, err := env.store.Get(commandContext(cmd), ticket.NormalizeID(args[0]))
	if err != nil {
		return err
	}

	next := engine.Allowed(t.Status)
	if len(next) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s (terminal)\n", t.ID, t.Status)
		return nil
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s; can move to: %s\n", t.ID, t.Status, strings.Join(names, ", "))
	return nil
}

func runTicketList(cmd *cobra.Command, args []string) error {
	filter, err := parseFilter(listStatuses, listKinds)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	tickets, err := env.store.List(commandContext(cmd), filter)
	if err != nil {
		return err
	}

	format := formatFlag(listJSON)
	out, err := report.Render(tickets, format)
	if err != nil {
		return err
	}
	if format == report.FormatTable && useColor(cmd) {
		statuses := make([]ticket.Status, len(tickets))
		for i, t := range tickets {
			statuses[i] = t.Status
		}
		out = colorRows(out, statuses)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// parseFilter reads comma-separated status and type lists
func parseFilter(statuses, kinds string) (ticket.Filter, error) {
	var f ticket.Filter
	for _, s := range splitList(statuses) {
		st, err := ticket.ParseStatus(s)
		if err != nil {
			return ticket.Filter{}, err
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, k := range splitList(kinds) {
		kind, err := ticket.ParseKind(k)
		if err != nil {
			return ticket.Filter{}, err
		}
		f.Kinds = append(f.Kinds, kind)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatFlag(asJSON bool) report.Format {
	if asJSON {
		return report.FormatJSON
	}
	return report.FormatTable
}
