package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ohare93/pg/internal/config"
	"github.com/ohare93/pg/internal/tui"
	"github.com/ohare93/pg/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a live board that follows changes to the store",
	Long: `Open a full-screen board of open tickets. It refreshes whenever another
pg process writes the store.

Keys:
  ↑/k ↓/j    Move
  s          Start (PENDING) or unblock (BLOCKED)
  b          Block, prompting for a reason
  c          Complete
  x          Cancel
  a          Toggle COMPLETED and CANCELLED tickets
  r          Refresh
  q          Quit`,
	Args: exactArgs(0),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return &usageError{err: fmt.Errorf("pg watch needs an interactive terminal")}
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	w, err := watcher.New()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.WatchStore(env.store.Path(), config.FileName); err != nil {
		return err
	}
	w.Start()

	return tui.Run(env.store, env.engine, w)
}
