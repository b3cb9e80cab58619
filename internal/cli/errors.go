package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/ticket"
)

// Process exit codes
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2 // bad flags or arguments, or a ValidationError
	ExitNotFound = 3
	ExitIllegal  = 4 // illegal transition or terminal state
	ExitStorage  = 5
)

// usageError marks mistakes in how pg was invoked
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// ExitCode maps an error onto the process exit code
func ExitCode(err error) int {
	var uerr *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ticket.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ticket.ErrIllegalTransition), errors.Is(err, ticket.ErrTerminalState):
		return ExitIllegal
	case errors.Is(err, ticket.ErrValidation), errors.As(err, &uerr):
		return ExitUsage
	case errors.Is(err, ticket.ErrStorage):
		return ExitStorage
	case strings.HasPrefix(err.Error(), "unknown command"):
		// cobra reports these as plain errors
		return ExitUsage
	}
	return ExitFailure
}

// exactArgs is cobra.ExactArgs with usage classification
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{err: fmt.Errorf("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))}
		}
		return nil
	}
}

// minimumArgs is cobra.MinimumNArgs with usage classification
func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return &usageError{err: fmt.Errorf("%s expects at least %d argument(s), got %d", cmd.CommandPath(), n, len(args))}
		}
		return nil
	}
}

// noSubcommandArgs rejects anything that did not match a subcommand, so
// typos fail instead of printing help with a zero exit
func noSubcommandArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}
