package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/markdown"
	"github.com/JakeFAU/dojobot/internal/reddit"
)

// LeaderboardForum is the forum surface DojoLeaderboard needs.
type LeaderboardForum interface {
	ThreadFinder
	WidgetEditor
}

// LeaderboardOptions configures DojoLeaderboard.
type LeaderboardOptions struct {
	Subreddit  string
	WidgetName string
	Bot        string
}

// DojoLeaderboard ingests new Dojo replies and republishes the current
// month's standings in the sidebar widget.
type DojoLeaderboard struct {
	forum    LeaderboardForum
	feed     dojo.CommentFeed
	ingester Ingester
	tallier  Tallier
	clock    clock.Clock
	opts     LeaderboardOptions
	logger   *zap.Logger
}

// NewDojoLeaderboard builds the task. feed must be long-lived so already
// seen comments are not replayed.
func NewDojoLeaderboard(forum LeaderboardForum, feed dojo.CommentFeed, ingester Ingester, tallier Tallier, clk clock.Clock, opts LeaderboardOptions, logger *zap.Logger) *DojoLeaderboard {
	return &DojoLeaderboard{
		forum:    forum,
		feed:     feed,
		ingester: ingester,
		tallier:  tallier,
		clock:    clk,
		opts:     opts,
		logger:   logger.Named("dojo-leaderboard"),
	}
}

// Run performs one update.
func (t *DojoLeaderboard) Run(ctx context.Context) error {
	thread, err := t.forum.StickyThread(ctx, t.opts.Subreddit)
	if errors.Is(err, reddit.ErrNotFound) {
		return dojo.ErrNoThread
	}
	if err != nil {
		return fmt.Errorf("find dojo thread: %w", err)
	}
	t.logger.Debug("dojo thread", zap.String("id", thread.ID), zap.String("title", thread.Title))

	n, err := t.ingester.Ingest(ctx, thread.ID, t.feed)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	t.logger.Info("ingested comments", zap.Int("count", n))

	now := t.clock.Now()
	start, end := dojo.MonthWindow(now)
	leaders, err := t.tallier.Tally(ctx, start, end)
	if err != nil {
		return fmt.Errorf("tally: %w", err)
	}

	text := markdown.LeaderboardTable(leaders, now, t.opts.Bot)
	if text == "" {
		t.logger.Info("no leaders yet this month, widget left unchanged")
		return nil
	}

	widgets, err := t.forum.Widgets(ctx, t.opts.Subreddit)
	if err != nil {
		return fmt.Errorf("list widgets: %w", err)
	}
	w, err := findTextArea(widgets, t.opts.WidgetName)
	if err != nil {
		return err
	}
	w.ShortName = markdown.WidgetTitle(t.opts.WidgetName, now)
	w.Text = text
	if err := t.forum.UpdateWidget(ctx, t.opts.Subreddit, w); err != nil {
		return fmt.Errorf("update leaderboard widget: %w", err)
	}
	t.logger.Info("leaderboard published", zap.String("title", w.ShortName), zap.Int("leaders", len(leaders)))
	return nil
}
