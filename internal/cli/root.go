package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ohare93/pg/internal/config"
	"github.com/ohare93/pg/internal/engine"
	"github.com/ohare93/pg/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "pg",
	Short:         "Track tickets through an enforced status lifecycle",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `pg keeps a project's tickets in .pg/ and only allows legal status changes.

Lifecycle:
  PENDING -> IN_PROGRESS -> COMPLETED
  IN_PROGRESS <-> BLOCKED (a blocker reason is required)
  PENDING, IN_PROGRESS or BLOCKED -> CANCELLED
  COMPLETED and CANCELLED are terminal.

Getting started:
  pg init --prefix WEB
  pg ticket create "Add login" --type feature
  pg ticket start WEB-1
  pg status`,
}

// GlobalOptions holds global flags and path overrides
type GlobalOptions struct {
	ProjectDir string // Override for current working directory
	ConfigPath string // Explicit config file
	Verbose    bool   // Debug logging on stderr
}

// GlobalOpts holds the parsed global flags (exported for testing)
var GlobalOpts GlobalOptions

// GetWorkingDir returns the working directory, respecting the --project-dir override
func GetWorkingDir() (string, error) {
	if GlobalOpts.ProjectDir != "" {
		return GlobalOpts.ProjectDir, nil
	}
	return os.Getwd()
}

// LoadConfigForCommand loads the project config honouring --config
func LoadConfigForCommand(projectDir string) (config.Config, error) {
	return config.Load(projectDir, GlobalOpts.ConfigPath)
}

// newLogger builds the command logger. --verbose wins over log.level.
func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if GlobalOpts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

// commandEnv bundles what most commands need: the project, its config, the
// open store and an engine over it
type commandEnv struct {
	projectDir string
	cfg        config.Config
	logger     *slog.Logger
	store      *store.Store
	engine     *engine.Engine
}

// openEnv loads config and opens the store. Callers must Close the result.
func openEnv(cmd *cobra.Command) (*commandEnv, error) {
	projectDir, err := GetWorkingDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := LoadConfigForCommand(projectDir)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(commandContext(cmd), cfg.StoreConfig(projectDir, logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "path", s.Path(), "backend", cfg.Storage.Backend, "prefix", s.Prefix())

	return &commandEnv{
		projectDir: projectDir,
		cfg:        cfg,
		logger:     logger,
		store:      s,
		engine:     engine.New(s),
	}, nil
}

func (e *commandEnv) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close store", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&GlobalOpts.ProjectDir, "project-dir", "", "Override working directory")
	rootCmd.PersistentFlags().StringVar(&GlobalOpts.ConfigPath, "config", "", "Config file (default .pg/config.yaml, or $PG_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&GlobalOpts.Verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}
