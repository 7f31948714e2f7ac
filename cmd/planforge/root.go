package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Strob0t/planforge/internal/config"
	"github.com/Strob0t/planforge/internal/logger"
)

// logToStdout marks long-running commands whose logs go to stdout. Every
// other command keeps stdout for its own output.
const logToStdout = "log-stdout"

// cli holds state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	cfg       *config.Config
	logCloser logger.Closer
}

// Execute builds the command tree and runs it with args until it finishes
// or SIGINT/SIGTERM arrives.
func Execute(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "planforge",
		Short: "Run PDDL planning problems through external solvers",
		Long: `planforge hands a PDDL domain and problem to one or more external
planners, collects every plan they produce, and reports one outcome per
planner in the order they were requested.`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultConfigFile, "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newPlanCmd(c),
		newSolversCmd(c),
		newServeCmd(c),
		newWorkerCmd(c),
		newMCPCmd(c),
		newHistoryCmd(c),
		newMigrateCmd(c),
	)
	return root
}

// setup loads configuration and installs the default logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	c.cfg = cfg

	out := os.Stderr
	if _, ok := cmd.Annotations[logToStdout]; ok {
		out = os.Stdout
	}
	log, closer := logger.NewWriter(out, cfg.Logging)
	slog.SetDefault(log)
	c.logCloser = closer
	return nil
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	if c.logCloser != nil {
		c.logCloser.Close()
	}
	return nil
}

// configOrDefaults is used where setup has not run, e.g. help output.
func (c *cli) configOrDefaults() *config.Config {
	if c.cfg != nil {
		return c.cfg
	}
	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		d := config.Defaults()
		return &d
	}
	return cfg
}

func requireDSN(cfg *config.Config) error {
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("no database configured: set postgres.dsn or DATABASE_URL")
	}
	return nil
}
