package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/markdown"
)

// LivestreamsForum is the forum surface Livestreams needs.
type LivestreamsForum interface {
	WidgetEditor
	WikiEditor
}

// LivestreamOptions configures Livestreams.
type LivestreamOptions struct {
	Subreddit      string
	SidebarPage    string
	WidgetName     string
	GameID         string
	MaxStreams     int
	MaxTitleLength int
	Bot            string
}

// Livestreams publishes the most watched live channels to the sidebar
// widget and the old sidebar.
type Livestreams struct {
	forum    LivestreamsForum
	channels ChannelLister
	opts     LivestreamOptions
	logger   *zap.Logger
}

// NewLivestreams builds the task.
func NewLivestreams(forum LivestreamsForum, channels ChannelLister, opts LivestreamOptions, logger *zap.Logger) *Livestreams {
	return &Livestreams{forum: forum, channels: channels, opts: opts, logger: logger.Named("livestreams")}
}

// Run performs one update. Nothing is published when no one is live.
func (t *Livestreams) Run(ctx context.Context) error {
	live, err := t.channels.LiveChannels(ctx, t.opts.GameID, t.opts.MaxStreams)
	if err != nil {
		return fmt.Errorf("live channels: %w", err)
	}
	rows := make([]markdown.Stream, 0, len(live))
	names := make([]string, 0, len(live))
	for _, c := range live {
		rows = append(rows, markdown.Stream{Title: c.Title, Viewers: c.Viewers, Name: c.Name, URL: c.URL})
		names = append(names, c.Name)
	}
	t.logger.Info("live channels", zap.Strings("streamers", names))

	text := markdown.LivestreamTable(rows, t.opts.MaxTitleLength, t.opts.Bot)
	if text == "" {
		return nil
	}

	var errs []error
	if err := t.updateWidget(ctx, text); err != nil {
		errs = append(errs, err)
	}
	if err := updateSection(ctx, t.forum, t.logger, t.opts.Subreddit, t.opts.SidebarPage, t.opts.WidgetName, text); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (t *Livestreams) updateWidget(ctx context.Context, text string) error {
	widgets, err := t.forum.Widgets(ctx, t.opts.Subreddit)
	if err != nil {
		return fmt.Errorf("list widgets: %w", err)
	}
	w, err := findTextArea(widgets, t.opts.WidgetName)
	if err != nil {
		return err
	}
	if w.Text == text {
		return nil
	}
	w.Text = text
	if err := t.forum.UpdateWidget(ctx, t.opts.Subreddit, w); err != nil {
		return fmt.Errorf("update livestream widget: %w", err)
	}
	return nil
}
