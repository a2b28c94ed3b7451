// Package app wires configuration into the long-lived services the bot runs:
// the comment store, forum and stream clients, archive store, scheduled
// tasks, and the ops server.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/clock/system"
	"github.com/JakeFAU/dojobot/internal/config"
	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/id/uuid"
	"github.com/JakeFAU/dojobot/internal/metrics"
	"github.com/JakeFAU/dojobot/internal/ops"
	"github.com/JakeFAU/dojobot/internal/policy/breaker"
	"github.com/JakeFAU/dojobot/internal/policy/ratelimit"
	"github.com/JakeFAU/dojobot/internal/reddit"
	"github.com/JakeFAU/dojobot/internal/scheduler"
	"github.com/JakeFAU/dojobot/internal/storage"
	gcsstorage "github.com/JakeFAU/dojobot/internal/storage/gcs"
	localstorage "github.com/JakeFAU/dojobot/internal/storage/local"
	memorystorage "github.com/JakeFAU/dojobot/internal/storage/memory"
	pgstore "github.com/JakeFAU/dojobot/internal/storage/postgres"
	"github.com/JakeFAU/dojobot/internal/tasks"
	"github.com/JakeFAU/dojobot/internal/twitch"
)

// MemoryDSN selects the in-process comment store.
const MemoryDSN = "memory://"

// CommentStore is the record store plus a readiness probe.
type CommentStore interface {
	dojo.Store
	ops.Pinger
}

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	clock     clock.Clock
	store     CommentStore
	scheduler *scheduler.Scheduler
	opsServer *ops.Server
	runners   map[string]Runnable
	closers   []func() error
}

// Runnable is a scheduled task body.
type Runnable interface {
	Run(ctx context.Context) error
}

// Build creates every service named by cfg and registers the enabled tasks.
// It fails fast: the forum login and store connection must both succeed.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	a := &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
	}
	logger.Info("building application",
		zap.String("subreddit", cfg.Subreddit),
		zap.Int("server_port", cfg.Server.Port),
		zap.String("archive_backend", cfg.Archive.Backend),
	)

	store, closeStore, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	archive, closeArchive, err := OpenArchive(ctx, cfg.Archive)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeArchive)

	limiter := ratelimit.New(ratelimit.Config{RPS: cfg.Reddit.RequestsPerSecond, Burst: cfg.Reddit.Burst})
	breakers := breaker.New(breaker.Config{Failures: cfg.Reddit.BreakerFailures, Timeout: cfg.Reddit.BreakerTimeout}, logger)
	forum, err := reddit.New(ctx, reddit.Config{
		ClientID:      cfg.Reddit.ClientID,
		ClientSecret:  cfg.Reddit.ClientSecret,
		Username:      cfg.Bot.Username,
		Password:      cfg.Bot.Password,
		UserAgent:     cfg.Bot.UserAgent,
		BaseURL:       cfg.Reddit.BaseURL,
		TokenURL:      cfg.Reddit.TokenURL,
		PermalinkBase: cfg.Reddit.PermalinkBase,
		Timeout:       cfg.RedditTimeout(),
		Limiter:       limiter,
		Breakers:      breakers,
	}, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("forum client: %w", err)
	}

	var channels tasks.ChannelLister
	if cfg.TaskEnabled(config.TaskLivestreams) {
		tw, err := twitch.New(ctx, twitch.Config{
			ClientID:     cfg.Twitch.ClientID,
			ClientSecret: cfg.Twitch.ClientSecret,
			BaseURL:      cfg.Twitch.BaseURL,
			TokenURL:     cfg.Twitch.TokenURL,
			UserAgent:    cfg.Bot.UserAgent,
			Timeout:      cfg.RedditTimeout(),
			Limiter:      limiter,
			Breakers:     breakers,
		}, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("stream client: %w", err)
		}
		channels = tw
	}

	a.scheduler = scheduler.New(a.clock, uuid.New(), scheduler.Config{
		Tick:       cfg.Scheduler.Tick,
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, logger)
	a.runners = NewTasks(cfg, Deps{
		Forum:    forum,
		Comments: forum.CommentStream(cfg.Subreddit),
		Posts:    forum.SubmissionStream(cfg.Subreddit),
		Channels: channels,
		Store:    store,
		Archive:  archive,
		Clock:    a.clock,
	}, logger)
	if err := a.register(); err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.Server.Port > 0 {
		a.opsServer = ops.NewServer(store, ops.Options{RateLimitPerMinute: cfg.Server.RateLimitPerMinute}, logger)
	}
	return a, nil
}

// register adds each enabled task in config.TaskNames order.
func (a *App) register() error {
	for _, name := range config.TaskNames {
		r, ok := a.runners[name]
		if !ok || !a.cfg.TaskEnabled(name) {
			continue
		}
		if err := a.scheduler.Add(scheduler.Job{
			Name:     name,
			Interval: a.cfg.Tasks[name].Interval,
			Run:      r.Run,
		}); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}

// Jobs lists the registered task names.
func (a *App) Jobs() []string {
	return a.scheduler.Jobs()
}

// Run serves the scheduler and ops server until ctx is cancelled. An ops
// server failure cancels the scheduler.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started", zap.Strings("tasks", a.Jobs()))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opsErr := make(chan error, 1)
	if a.opsServer != nil {
		addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
		go func() {
			err := a.opsServer.ListenAndServe(ctx, addr)
			if err != nil {
				a.logger.Error("ops server error", zap.Error(err))
				cancel()
			}
			opsErr <- err
		}()
	} else {
		close(opsErr)
	}

	err := a.scheduler.Run(ctx)
	cancel()
	a.logger.Info("shutdown initiated")
	return errors.Join(err, <-opsErr)
}

// RunTask invokes a single task once. Tasks switched off in config are
// registered on demand so they can still be run by hand.
func (a *App) RunTask(ctx context.Context, name string) error {
	r, ok := a.runners[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, scheduler.ErrUnknownJob)
	}
	if !slices.Contains(a.Jobs(), name) {
		interval := a.cfg.Tasks[name].Interval
		if interval <= 0 {
			interval = time.Hour
		}
		if err := a.scheduler.Add(scheduler.Job{Name: name, Interval: interval, Run: r.Run}); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return a.scheduler.RunJob(ctx, name) //nolint:wrapcheck // scheduler errors already name the job
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing resources", zap.Error(err))
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}

// OpenStore connects the comment store. MemoryDSN selects the in-process
// store; any other DSN is a Postgres pool whose schema is ensured.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (CommentStore, func() error, error) {
	if strings.HasPrefix(cfg.DSN, MemoryDSN) {
		logger.Warn("using in-memory comment store; records are lost on exit")
		return memorystorage.NewCommentStore(), func() error { return nil }, nil
	}
	store, err := pgstore.NewCommentStore(ctx, pgstore.Config{
		DSN:             cfg.DSN,
		Table:           cfg.Table,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("comment store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("comment store schema: %w", err)
	}
	return store, func() error { store.Close(); return nil }, nil
}

// OpenArchive selects the monthly standings archive backend.
func OpenArchive(ctx context.Context, cfg config.ArchiveConfig) (storage.BlobStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "":
		return storage.NoOpBlobStore{}, noop, nil
	case "memory":
		return memorystorage.NewBlobStore(), noop, nil
	case "local":
		bs, err := localstorage.New(localstorage.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, nil, fmt.Errorf("local archive: %w", err)
		}
		return bs, noop, nil
	case "gcs":
		bs, err := gcsstorage.Open(ctx, gcsstorage.Config{Bucket: cfg.Bucket})
		if err != nil {
			return nil, nil, fmt.Errorf("gcs archive: %w", err)
		}
		return bs, bs.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
