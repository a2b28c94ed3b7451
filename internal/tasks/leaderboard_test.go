package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/reddit"
)

var leaderboardOpts = LeaderboardOptions{Subreddit: "Tekken", WidgetName: "Dojo Leaderboard", Bot: "tekken-bot"}

func TestDojoLeaderboardPublishes(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.thread = reddit.Submission{ID: "dojo1", Title: "Tekken Dojo"}
	forum.widgets.Sidebar = []reddit.Widget{
		&reddit.TextAreaWidget{ID: "w1", ShortName: "Useful Stuff"},
		&reddit.TextAreaWidget{ID: "w2", ShortName: "Dojo Leaderboard (Sep '26)", Text: "old"},
	}
	ing := &fakeIngester{n: 4}
	tal := &fakeTallier{entries: []dojo.LeaderboardEntry{{Rank: 1, Author: "helper", Score: 4}}}
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	task := NewDojoLeaderboard(forum, nil, ing, tal, clock.Fixed{At: now}, leaderboardOpts, zap.NewNop())
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, "dojo1", ing.threadID)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), tal.start)
	require.Len(t, forum.updated, 1)
	w := forum.updated[0].(*reddit.TextAreaWidget)
	assert.Equal(t, "w2", w.ID)
	assert.Equal(t, "Dojo Leaderboard (Oct '26)", w.ShortName)
	assert.Contains(t, w.Text, "1 | u/helper | 4\n")
}

func TestDojoLeaderboardSkipsEmptyStandings(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.thread = reddit.Submission{ID: "dojo1"}
	forum.widgets.Sidebar = []reddit.Widget{&reddit.TextAreaWidget{ID: "w2", ShortName: "Dojo Leaderboard"}}

	task := NewDojoLeaderboard(forum, nil, &fakeIngester{}, &fakeTallier{}, clock.Fixed{At: time.Now()}, leaderboardOpts, zap.NewNop())
	require.NoError(t, task.Run(context.Background()))
	assert.Empty(t, forum.updated)
}

func TestDojoLeaderboardNoThread(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.threadErr = reddit.ErrNotFound
	ing := &fakeIngester{}

	task := NewDojoLeaderboard(forum, nil, ing, &fakeTallier{}, clock.Fixed{At: time.Now()}, leaderboardOpts, zap.NewNop())
	assert.ErrorIs(t, task.Run(context.Background()), dojo.ErrNoThread)
	assert.Empty(t, ing.threadID, "nothing ingested without a thread")
}

func TestDojoLeaderboardMissingWidget(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.thread = reddit.Submission{ID: "dojo1"}
	tal := &fakeTallier{entries: []dojo.LeaderboardEntry{{Rank: 1, Author: "helper", Score: 1}}}

	task := NewDojoLeaderboard(forum, nil, &fakeIngester{}, tal, clock.Fixed{At: time.Now()}, leaderboardOpts, zap.NewNop())
	assert.ErrorIs(t, task.Run(context.Background()), reddit.ErrWidgetNotFound)
}

func TestDojoCleaner(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewDojoCleaner(fakePruner{n: 12}, zap.NewNop()).Run(context.Background()))
	assert.ErrorIs(t, NewDojoCleaner(fakePruner{err: errUpstream}, zap.NewNop()).Run(context.Background()), errUpstream)
}
