package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pulse/internal/config"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/version"
)

type rootOptions struct {
	logLevel string
	json     bool
}

// NewRootCmd builds the pulse command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Pulse - service health dashboard core",
		Long: `Pulse keeps an eventually consistent view of a fleet of monitored
services, their status history and their dependency graph, fed from a
status backend. Configuration is read from PULSE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Get().Version,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override PULSE_LOG_LEVEL")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of colored text")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCardsCmd(opts))
	cmd.AddCommand(newGraphCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// load reads the configuration and builds the logger. One-shot commands
// default to warn so their output stays readable.
func (o *rootOptions) load(defaultLevel string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.LogLevel
	if defaultLevel != "" && os.Getenv("PULSE_LOG_LEVEL") == "" {
		level = defaultLevel
	}
	if o.logLevel != "" {
		level = o.logLevel
	}
	return cfg, logger.New(level, cfg.PrettyLog), nil
}
