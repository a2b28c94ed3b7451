package tasks

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/markdown"
	"github.com/JakeFAU/dojobot/internal/reddit"
)

// EventsForum is the forum surface Events needs.
type EventsForum interface {
	WidgetEditor
	WikiEditor
}

// EventsOptions configures Events.
type EventsOptions struct {
	Subreddit   string
	SidebarPage string
	WidgetName  string
	Bot         string
}

// Events mirrors the calendar widget into the old sidebar.
type Events struct {
	forum  EventsForum
	clock  clock.Clock
	opts   EventsOptions
	logger *zap.Logger
}

// NewEvents builds the task.
func NewEvents(forum EventsForum, clk clock.Clock, opts EventsOptions, logger *zap.Logger) *Events {
	return &Events{forum: forum, clock: clk, opts: opts, logger: logger.Named("events")}
}

// Run performs one update.
func (t *Events) Run(ctx context.Context) error {
	widgets, err := t.forum.Widgets(ctx, t.opts.Subreddit)
	if err != nil {
		return fmt.Errorf("list widgets: %w", err)
	}
	var cal *reddit.CalendarWidget
	for _, w := range widgets.Sidebar {
		if c, ok := w.(*reddit.CalendarWidget); ok && c.ShortName == t.opts.WidgetName {
			cal = c
			break
		}
	}
	if cal == nil {
		return fmt.Errorf("calendar %q: %w", t.opts.WidgetName, reddit.ErrWidgetNotFound)
	}

	rows := make([]markdown.Event, 0, len(cal.Data))
	for _, e := range cal.Data {
		rows = append(rows, markdown.Event{Title: e.Title, Start: epoch(e.StartTime), Location: e.Location})
	}
	t.logger.Debug("calendar events", zap.Int("count", len(rows)))

	text := markdown.EventsTable(rows, t.clock.Now(), t.opts.Bot)
	return updateSection(ctx, t.forum, t.logger, t.opts.Subreddit, t.opts.SidebarPage, t.opts.WidgetName, text)
}

func epoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
