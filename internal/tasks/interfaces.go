package tasks

import (
	"context"
	"time"

	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/reddit"
	"github.com/JakeFAU/dojobot/internal/twitch"
)

// ThreadFinder locates the pinned Dojo thread.
type ThreadFinder interface {
	StickyThread(ctx context.Context, sub string) (reddit.Submission, error)
}

// WidgetEditor reads and updates sidebar and top bar widgets.
type WidgetEditor interface {
	Widgets(ctx context.Context, sub string) (reddit.Widgets, error)
	UpdateWidget(ctx context.Context, sub string, w reddit.Widget) error
}

// WikiEditor reads and writes wiki pages.
type WikiEditor interface {
	WikiPage(ctx context.Context, sub, page string) (string, error)
	EditWikiPage(ctx context.Context, sub, page, content, reason string) error
}

// FlairEditor manages user flair.
type FlairEditor interface {
	FlairList(ctx context.Context, sub string) ([]reddit.UserFlair, error)
	UserFlair(ctx context.Context, sub, user string) (reddit.UserFlair, error)
	SetFlair(ctx context.Context, sub, user, text, cssClass string) error
	SetFlairTemplate(ctx context.Context, sub, user, templateID, text string) error
}

// Moderator removes posts with a saved removal reason.
type Moderator interface {
	RemovalReasons(ctx context.Context, sub string) ([]reddit.RemovalReason, error)
	Remove(ctx context.Context, fullname, reasonID string) error
	SendRemovalMessage(ctx context.Context, fullname, title, message, kind string) error
}

// SubmissionFeed yields newly observed posts.
type SubmissionFeed interface {
	Next(ctx context.Context) (reddit.Submission, bool, error)
}

// ChannelLister lists live streams for a game.
type ChannelLister interface {
	LiveChannels(ctx context.Context, gameID string, max int) ([]twitch.Channel, error)
}

// Ingester records helpful replies from a comment feed.
type Ingester interface {
	Ingest(ctx context.Context, threadID string, feed dojo.CommentFeed) (int, error)
}

// Tallier ranks authors over a window.
type Tallier interface {
	Tally(ctx context.Context, start, end time.Time) ([]dojo.LeaderboardEntry, error)
}

// Reconciler drops records whose comments were deleted upstream and returns
// the permalinks of the survivors.
type Reconciler interface {
	Reconcile(ctx context.Context, start, end time.Time) (map[string]string, error)
}

// Pruner removes records past the retention horizon.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}
