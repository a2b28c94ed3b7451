package app

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/config"
	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/storage"
	"github.com/JakeFAU/dojobot/internal/tasks"
)

// Forum is every forum capability the tasks use.
type Forum interface {
	tasks.ThreadFinder
	tasks.WidgetEditor
	tasks.WikiEditor
	tasks.FlairEditor
	tasks.Moderator
	dojo.ParentResolver
	dojo.CommentLookup
}

// Deps are the shared collaborators handed to task constructors. Comments
// and Posts must outlive a single run so already seen items stay seen.
type Deps struct {
	Forum    Forum
	Comments dojo.CommentFeed
	Posts    tasks.SubmissionFeed
	// Channels is nil when livestreams are switched off.
	Channels tasks.ChannelLister
	Store    dojo.Store
	Archive  storage.BlobStore
	Clock    clock.Clock
}

// NewTasks builds every task the config and deps can support, keyed by task
// name. Enabling is left to the caller.
func NewTasks(cfg config.Config, d Deps, logger *zap.Logger) map[string]Runnable {
	sub := cfg.Subreddit
	dc := cfg.Dojo

	ingester := dojo.NewIngester(d.Store, d.Forum, dojo.IngestOptions{
		FillerPhrases:    dc.FillerPhrases,
		MaxFeedItems:     dc.MaxFeedItems,
		MaxAncestorDepth: dc.MaxAncestorDepth,
	}, logger.Named("dojo"))
	tallier := dojo.NewTallier(d.Store, dc.LeaderboardSize, dc.TrailerOffset)
	reconciler := dojo.NewReconciler(d.Store, d.Forum, logger.Named("dojo"))
	pruner := dojo.NewPruner(d.Store, d.Clock, cfg.RetentionHorizon(), logger.Named("dojo"))

	day, ok := cfg.ScheduleDay()
	if !ok && cfg.TaskEnabled(config.TaskScheduleRule) {
		logger.Warn("schedule_rule.day out of range, using default", zap.Int("configured", cfg.ScheduleRule.Day), zap.Int("day", day))
	}

	runners := map[string]Runnable{
		config.TaskDojoLeaderboard: tasks.NewDojoLeaderboard(d.Forum, d.Comments, ingester, tallier, d.Clock, tasks.LeaderboardOptions{
			Subreddit:  sub,
			WidgetName: dc.WidgetName,
			Bot:        cfg.Bot.Username,
		}, logger),
		config.TaskDojoAward: tasks.NewDojoAward(d.Forum, reconciler, tallier, d.Store, d.Archive, d.Clock, tasks.AwardOptions{
			Subreddit:      sub,
			WikiPrefix:     dc.WikiPrefix,
			MasterFlairID:  dc.MasterFlairID,
			MasterCSSClass: dc.MasterCSSClass,
			FormerCSSClass: dc.FormerCSSClass,
			LinksPerLeader: dc.WikiLinksPerLeader,
			ArchivePrefix:  cfg.Archive.Prefix,
		}, logger),
		config.TaskDojoCleaner: tasks.NewDojoCleaner(pruner, logger),
		config.TaskDojoLinks: tasks.NewDojoLinks(d.Forum, tasks.LinksOptions{
			Subreddit:        sub,
			SidebarPage:      cfg.Sidebar.WikiPage,
			PermalinkBase:    cfg.Reddit.PermalinkBase,
			LinkText:         dc.LinkText,
			MenuLinkText:     dc.MenuLinkText,
			UsefulWidgetName: dc.UsefulWidgetName,
			ImageWidgetName:  dc.ImageWidgetName,
		}, logger),
		config.TaskEvents: tasks.NewEvents(d.Forum, d.Clock, tasks.EventsOptions{
			Subreddit:   sub,
			SidebarPage: cfg.Sidebar.WikiPage,
			WidgetName:  cfg.Events.WidgetName,
			Bot:         cfg.Bot.Username,
		}, logger),
		config.TaskScheduleRule: tasks.NewScheduleRule(d.Posts, d.Forum, tasks.ScheduleOptions{
			Subreddit:          sub,
			FlairText:          cfg.ScheduleRule.FlairText,
			Day:                day,
			RemovalReasonTitle: cfg.ScheduleRule.RemovalReasonTitle,
			MaxFeedItems:       cfg.ScheduleRule.MaxFeedItems,
		}, logger),
	}
	if d.Channels != nil {
		runners[config.TaskLivestreams] = tasks.NewLivestreams(d.Forum, d.Channels, tasks.LivestreamOptions{
			Subreddit:      sub,
			SidebarPage:    cfg.Sidebar.WikiPage,
			WidgetName:     cfg.Livestream.WidgetName,
			GameID:         cfg.Twitch.GameID,
			MaxStreams:     cfg.Livestream.MaxStreams,
			MaxTitleLength: cfg.Livestream.MaxStatusLength,
			Bot:            cfg.Bot.Username,
		}, logger)
	}
	return runners
}
