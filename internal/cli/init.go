package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/config"
	"github.com/ohare93/pg/internal/store"
)

var (
	initPrefix  string
	initBackend string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .pg/ with a config file and an empty ticket store",
	Long: `Write .pg/config.yaml and create the ticket store. Running init again
updates the config; existing tickets are kept. With --config or PG_CONFIG
the config is written to that file instead.

Examples:
  pg init
  pg init --prefix WEB --backend sqlite
  pg --config team.yaml init --prefix TEAM`,
	Args: exactArgs(0),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPrefix, "prefix", "", "Ticket ID prefix (default PROJ)")
	initCmd.Flags().StringVar(&initBackend, "backend", "", "Storage backend: file or sqlite (default file)")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir, err := GetWorkingDir()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, path, err := config.LoadForWrite(projectDir, GlobalOpts.ConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("prefix") {
		cfg.Prefix = strings.ToUpper(strings.TrimSpace(initPrefix))
	}
	if cmd.Flags().Changed("backend") {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(initBackend))
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	s, err := store.Open(commandContext(cmd), cfg.StoreConfig(projectDir, logger))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized pg in %s (prefix %s, %s backend)\n", projectDir, cfg.Prefix, cfg.Storage.Backend)
	return nil
}
