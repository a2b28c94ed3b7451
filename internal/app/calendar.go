package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/dojobot/internal/calsync"
	"github.com/JakeFAU/dojobot/internal/clock/system"
	"github.com/JakeFAU/dojobot/internal/config"
	"github.com/JakeFAU/dojobot/internal/gcal"
	"github.com/JakeFAU/dojobot/internal/policy/breaker"
	"github.com/JakeFAU/dojobot/internal/startgg"
)

// SyncCalendar copies upcoming tournaments into the configured calendar.
// It needs no forum login and runs standalone.
func SyncCalendar(ctx context.Context, cfg config.Config, logger *zap.Logger) (calsync.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StartGG.Token == "" {
		return calsync.Result{}, fmt.Errorf("startgg.token: %w", config.ErrMissing)
	}
	if cfg.Calendar.CalendarID == "" {
		return calsync.Result{}, fmt.Errorf("calendar.calendar_id: %w", config.ErrMissing)
	}

	breakers := breaker.New(breaker.Config{Failures: cfg.Reddit.BreakerFailures, Timeout: cfg.Reddit.BreakerTimeout}, logger)
	source, err := startgg.New(startgg.Config{
		URL:       cfg.StartGG.URL,
		Token:     cfg.StartGG.Token,
		PerPage:   cfg.StartGG.PerPage,
		UserAgent: cfg.Bot.UserAgent,
		HTTPClient: &http.Client{
			Transport: &breaker.Transport{Breakers: breakers},
			Timeout:   cfg.RedditTimeout(),
		},
	}, logger)
	if err != nil {
		return calsync.Result{}, fmt.Errorf("tournament client: %w", err)
	}

	var opts []option.ClientOption
	if cfg.Calendar.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Calendar.CredentialsFile))
	}
	sink, err := gcal.New(ctx, cfg.Calendar.CalendarID, logger, opts...)
	if err != nil {
		return calsync.Result{}, fmt.Errorf("calendar client: %w", err)
	}

	horizon := time.Duration(cfg.StartGG.HorizonDays) * 24 * time.Hour
	syncer := calsync.New(source, sink, system.New(), cfg.StartGG.VideogameID, horizon, logger)
	res, err := syncer.Sync(ctx)
	if err != nil {
		return res, fmt.Errorf("calendar sync: %w", err)
	}
	return res, nil
}
