package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/app"
	"github.com/JakeFAU/dojobot/internal/config"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every enabled task on its schedule",
		Long: `Logs in, registers the enabled tasks and runs them on their configured
intervals until SIGINT or SIGTERM. The ops server exposes /healthz, /readyz
and /metrics when server.port is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			defer func() { _ = a.Close() }()

			if err := a.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run: %w", err)
			}
			return nil
		},
	}
}

func newTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "task <name>",
		Short:     "Run one task once and exit",
		Long:      "Runs a single task immediately, even if it is switched off in config.\nTasks: " + strings.Join(config.TaskNames, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.TaskNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			defer func() { _ = a.Close() }()

			if err := a.RunTask(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("task %s: %w", args[0], err)
			}
			e.logger.Info("task finished", zap.String("task", args[0]))
			return nil
		},
	}
}

func newCalendarSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar-sync",
		Short: "Copy upcoming tournaments into the shared calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			res, err := app.SyncCalendar(cmd.Context(), e.cfg, e.logger)
			e.logger.Info("calendar sync finished",
				zap.Int("fetched", res.Fetched),
				zap.Int("inserted", res.Inserted),
				zap.Int("skipped", res.Skipped),
				zap.Int("failed", res.Failed),
			)
			return err //nolint:wrapcheck // SyncCalendar wraps its own errors
		},
	}
}
