package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/ticket"
	"github.com/ohare93/pg/internal/vcs"
)

// transitionFlags holds the flags shared by update and its shorthands
type transitionFlags struct {
	status       string
	branch       string
	reason       string
	assignee     string
	note         string
	createBranch bool

	from ticket.Status // set by shortcuts that only apply to one source status
}

var updateFlags transitionFlags

var ticketUpdateCmd = &cobra.Command{
	Use:   "update <id> --status <status>",
	Short: "Move a ticket to a new status",
	Long: `Move a ticket to a new status. Illegal moves are rejected and leave the ticket unchanged.

Starting a PENDING ticket without --branch uses the conventional branch
<type>/<ID>, e.g. feature/PROJ-1. --create-branch also creates that branch
in git (or a bookmark in jj) and switches to it.

Examples:
  pg ticket update PROJ-1 --status in_progress
  pg ticket update PROJ-1 --status blocked --reason "waiting on API keys"
  pg ticket update PROJ-1 --status completed --note "shipped in 1.4"`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateFlags.status == "" {
			return &ticket.ValidationError{Field: "status", Reason: "is required (--status)"}
		}
		target, err := ticket.ParseStatus(updateFlags.status)
		if err != nil {
			return err
		}
		return runTransition(cmd, args[0], target, &updateFlags)
	},
}

func init() {
	f := ticketUpdateCmd.Flags()
	f.StringVarP(&updateFlags.status, "status", "s", "", "Target status (required)")
	f.StringVar(&updateFlags.branch, "branch", "", "Branch to record when starting work")
	f.StringVar(&updateFlags.reason, "reason", "", "Blocker reason (required for blocked)")
	f.StringVar(&updateFlags.assignee, "assignee", "", "Also change the assignee")
	f.StringVar(&updateFlags.note, "note", "", "Note for the ticket history")
	f.BoolVar(&updateFlags.createBranch, "create-branch", false, "Create and switch to the branch in the working copy")
}

var (
	startFlags    transitionFlags
	blockFlags    transitionFlags
	unblockFlags  transitionFlags
	completeFlags transitionFlags
	cancelFlags   transitionFlags
)

// shortcutCmds builds the start, block, unblock, complete and cancel
// shorthands over update
func shortcutCmds() []*cobra.Command {
	type shortcut struct {
		use, short string
		from       ticket.Status // required source status; empty accepts any
		target     ticket.Status
		flags      *transitionFlags
	}
	shortcuts := []shortcut{
		{"start", "Move a PENDING ticket to IN_PROGRESS", ticket.StatusPending, ticket.StatusInProgress, &startFlags},
		{"block", "Mark an IN_PROGRESS ticket BLOCKED (needs --reason)", ticket.StatusInProgress, ticket.StatusBlocked, &blockFlags},
		{"unblock", "Move a BLOCKED ticket back to IN_PROGRESS", ticket.StatusBlocked, ticket.StatusInProgress, &unblockFlags},
		{"complete", "Mark an IN_PROGRESS ticket COMPLETED", ticket.StatusInProgress, ticket.StatusCompleted, &completeFlags},
		{"cancel", "Cancel a ticket that is not yet closed", "", ticket.StatusCancelled, &cancelFlags},
	}

	cmds := make([]*cobra.Command, 0, len(shortcuts))
	for _, sc := range shortcuts {
		sc := sc
		c := &cobra.Command{
			Use:   sc.use + " <id>",
			Short: sc.short,
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				flags := *sc.flags
				flags.from = sc.from
				return runTransition(cmd, args[0], sc.target, &flags)
			},
		}
		c.Flags().StringVar(&sc.flags.note, "note", "", "Note for the ticket history")
		c.Flags().StringVar(&sc.flags.assignee, "assignee", "", "Also change the assignee")
		switch sc.use {
		case "start":
			c.Flags().StringVar(&sc.flags.branch, "branch", "", "Branch to record (default <type>/<ID>)")
			c.Flags().BoolVar(&sc.flags.createBranch, "create-branch", false, "Create and switch to the branch in the working copy")
		case "block":
			c.Flags().StringVar(&sc.flags.reason, "reason", "", "Why the ticket is blocked (required)")
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func runTransition(cmd *cobra.Command, rawID string, target ticket.Status, flags *transitionFlags) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := commandContext(cmd)
	id := ticket.NormalizeID(rawID)

	current, err := env.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if flags.from != "" && current.Status != flags.from {
		if current.Status.IsTerminal() {
			return &ticket.TerminalStateError{ID: current.ID, Status: current.Status, Requested: target}
		}
		return &ticket.IllegalTransitionError{ID: current.ID, From: current.Status, To: target}
	}

	fields := engine.Fields{
		Branch:        flags.branch,
		BlockerReason: flags.reason,
		Note:          flags.note,
	}
	if cmd.Flags().Changed("assignee") {
		who := flags.assignee
		fields.Assignee = &who
	}
	if fields.Branch == "" && current.Status == ticket.StatusPending && target == ticket.StatusInProgress {
		fields.Branch = engine.BranchName(current)
	}

	// Reject illegal moves before touching the working copy
	if err := engine.Check(current, target, fields); err != nil {
		return err
	}

	if flags.createBranch {
		if target != ticket.StatusInProgress {
			return &ticket.ValidationError{Field: "create-branch", Reason: fmt.Sprintf("only applies when moving to %s", ticket.StatusInProgress)}
		}
		if err := startBranch(cmd, env, current, fields.Branch); err != nil {
			return err
		}
	}

	updated, err := env.engine.Transition(ctx, id, target, fields)
	if err != nil {
		return err
	}
	env.logger.Debug("ticket transitioned", "id", updated.ID, "from", current.Status, "to", updated.Status)

	line := fmt.Sprintf("%s: %s -> %s", updated.ID, current.Status, updated.Status)
	switch {
	case updated.Status == ticket.StatusBlocked:
		line += fmt.Sprintf(" (%s)", updated.BlockerReason)
	case updated.Branch != "" && updated.Branch != current.Branch:
		line += fmt.Sprintf(" (branch %s)", updated.Branch)
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

// startBranch creates or switches to branch in the project's working copy
func startBranch(cmd *cobra.Command, env *commandEnv, t *ticket.Ticket, branch string) error {
	if branch == "" {
		branch = t.Branch
	}
	if branch == "" {
		return &ticket.ValidationError{Field: "branch", Reason: "--create-branch needs a branch"}
	}

	if err := vcs.ValidateBranchName(branch); err != nil {
		return &ticket.ValidationError{Field: "branch", Reason: err.Error()}
	}

	backend, err := vcs.Resolve(env.projectDir, env.cfg.VCS)
	if err != nil {
		if errors.Is(err, vcs.ErrDisabled) || errors.Is(err, vcs.ErrNoRepository) {
			return &ticket.ValidationError{Field: "create-branch", Reason: err.Error()}
		}
		return err
	}

	if current, err := backend.CurrentBranch(env.projectDir); err == nil && current == branch {
		env.logger.Debug("already on branch", "branch", branch)
		return nil
	}

	created, err := backend.StartBranch(env.projectDir, branch)
	if err != nil {
		return fmt.Errorf("failed to start branch %s: %w", branch, err)
	}
	verb := "switched to"
	if created {
		verb = "created"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s\n", backend.Type(), verb, branch)
	return nil
}
