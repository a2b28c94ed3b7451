// Package cmd defines the CLI commands for the dojobot executable.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/config"
	"github.com/JakeFAU/dojobot/internal/logging"
)

// envKeyType is the key for storing the loaded environment in the context.
type envKeyType string

const envKey envKeyType = "env"

// env is what every subcommand receives after the root pre-run hook.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "dojobot",
		Short: "Moderation and engagement bot for a game subreddit.",
		Long: `dojobot keeps a subreddit's sidebar widgets current, runs the monthly
Dojo helper leaderboard, enforces the shitpost schedule, and mirrors
upcoming tournaments into a shared calendar.`,
		SilenceUsage: true,

		// Config and logging are set up once here so every subcommand
		// starts from the same environment.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), envKey, &env{cfg: cfg, logger: logger}))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, err := resolveEnv(cmd.Context()); err == nil {
				_ = e.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env vars prefixed DOJOBOT_ override it)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newCalendarSyncCmd())
	return cmd
}

func resolveEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok || e == nil {
		return nil, errors.New("environment not initialized")
	}
	return e, nil
}

// Execute runs the root command with ctx and returns its error.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx) //nolint:wrapcheck // cobra errors are user facing as is
}
