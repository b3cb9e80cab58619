package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/ticket"
)

// completeTicketIDs suggests ticket IDs with their titles as descriptions.
// Only the first positional argument is completed.
func completeTicketIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	env, err := openEnv(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer env.Close()

	tickets, err := env.store.List(commandContext(cmd), ticket.Filter{})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	prefix := strings.ToUpper(toComplete)
	var completions []string
	for _, t := range tickets {
		if strings.HasPrefix(t.ID, prefix) {
			completions = append(completions, t.ID+"\t"+t.Title)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses completes --status values, including comma lists
func completeStatuses(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	values := make([]string, len(ticket.Statuses))
	for i, s := range ticket.Statuses {
		values[i] = strings.ToLower(string(s))
	}
	return completeList(values, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeKinds completes --type values
func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	values := make([]string, len(ticket.Kinds))
	for i, k := range ticket.Kinds {
		values[i] = string(k)
	}
	return completeList(values, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeList matches the last element of a comma-separated value
func completeList(values []string, toComplete string) []string {
	head := ""
	last := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		head, last = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, strings.ToLower(last)) {
			out = append(out, head+v)
		}
	}
	return out
}

func registerCompletions() {
	for _, c := range []*cobra.Command{ticketShowCmd, ticketAssignCmd, ticketTransitionsCmd, ticketUpdateCmd} {
		c.ValidArgsFunction = completeTicketIDs
	}
	for _, c := range ticketCmd.Commands() {
		switch c.Name() {
		case "start", "block", "unblock", "complete", "cancel":
			c.ValidArgsFunction = completeTicketIDs
		}
	}
	_ = ticketUpdateCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = ticketListCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = ticketListCmd.RegisterFlagCompletionFunc("type", completeKinds)
	_ = ticketCreateCmd.RegisterFlagCompletionFunc("type", completeKinds)
}
