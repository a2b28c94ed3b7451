// Package main is the dojobot entrypoint.
//
// The binary is a thin cobra shell over internal/app:
//   - run: log in, register enabled tasks, and poll the scheduler until
//     SIGINT/SIGTERM. An optional ops server serves /healthz, /readyz, /metrics.
//   - task <name>: run one task once and exit non-zero if it failed.
//   - calendar-sync: copy upcoming tournaments into the shared calendar.
//
// Configuration comes from --config (YAML) with DOJOBOT_* env overrides;
// DATABASE_URL is also honored for the store DSN. Use database.dsn
// "memory://" to run without Postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JakeFAU/dojobot/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dojobot: %v\n", err)
		os.Exit(1)
	}
}
