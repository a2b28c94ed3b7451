package tasks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/reddit"
)

// utcOffsets spans every civil UTC offset from -12:00 to +14:00 in half
// hour steps.
var utcOffsets = func() []time.Duration {
	out := []time.Duration{-12 * time.Hour}
	for h := -11; h <= 13; h++ {
		base := time.Duration(h) * time.Hour
		out = append(out, base, base+30*time.Minute)
	}
	return append(out, 14*time.Hour)
}()

// LiesOnDay reports whether instant t falls on ISO weekday day (1 = Monday,
// 7 = Sunday) for at least one UTC offset.
func LiesOnDay(t time.Time, day int) bool {
	t = t.UTC()
	for _, off := range utcOffsets {
		if isoWeekday(t.Add(off)) == day {
			return true
		}
	}
	return false
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ScheduleOptions configures ScheduleRule.
type ScheduleOptions struct {
	Subreddit          string
	FlairText          string
	Day                int
	RemovalReasonTitle string
	MaxFeedItems       int
}

// ScheduleRule removes posts carrying the restricted flair when they were
// not made on the allowed weekday anywhere in the world.
type ScheduleRule struct {
	feed   SubmissionFeed
	mod    Moderator
	opts   ScheduleOptions
	logger *zap.Logger
}

// NewScheduleRule builds the task. feed must be long-lived so posts are
// judged once.
func NewScheduleRule(feed SubmissionFeed, mod Moderator, opts ScheduleOptions, logger *zap.Logger) *ScheduleRule {
	if opts.MaxFeedItems <= 0 {
		opts.MaxFeedItems = 200
	}
	return &ScheduleRule{feed: feed, mod: mod, opts: opts, logger: logger.Named("schedule-rule")}
}

// Run drains the feed once. The removal reason is resolved before any post
// is consumed so a missing reason leaves the feed untouched for the next run.
func (t *ScheduleRule) Run(ctx context.Context) error {
	reason, err := t.removalReason(ctx)
	if err != nil {
		return err
	}
	for range t.opts.MaxFeedItems {
		post, ok, err := t.feed.Next(ctx)
		if err != nil {
			return fmt.Errorf("read submissions: %w", err)
		}
		if !ok {
			return nil
		}
		if post.Flair != t.opts.FlairText || LiesOnDay(post.CreatedUTC, t.opts.Day) {
			continue
		}
		logger := t.logger.With(zap.String("post", post.Permalink), zap.Time("created", post.CreatedUTC))
		if err := t.mod.Remove(ctx, post.Fullname, reason.ID); err != nil {
			logger.Warn("remove failed", zap.Error(err))
			continue
		}
		if err := t.mod.SendRemovalMessage(ctx, post.Fullname, reason.Title, reason.Message, "public"); err != nil {
			logger.Warn("removal message failed", zap.Error(err))
			continue
		}
		logger.Info("removed off-schedule post")
	}
	return nil
}

func (t *ScheduleRule) removalReason(ctx context.Context) (*reddit.RemovalReason, error) {
	reasons, err := t.mod.RemovalReasons(ctx, t.opts.Subreddit)
	if err != nil {
		return nil, fmt.Errorf("list removal reasons: %w", err)
	}
	for i := range reasons {
		if reasons[i].Title == t.opts.RemovalReasonTitle {
			return &reasons[i], nil
		}
	}
	return nil, fmt.Errorf("removal reason %q not found", t.opts.RemovalReasonTitle)
}
