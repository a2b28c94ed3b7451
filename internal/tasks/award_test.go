package tasks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/reddit"
	"github.com/JakeFAU/dojobot/internal/storage/memory"
)

var awardOpts = AwardOptions{
	Subreddit:      "Tekken",
	WikiPrefix:     "dojo/leaderboard",
	MasterFlairID:  "tmpl-1",
	MasterCSSClass: "dojo-master",
	FormerCSSClass: "mokujin",
	LinksPerLeader: 10,
	ArchivePrefix:  "standings",
}

func TestDojoAwardOnFirstOfMonth(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.flairs["oldmaster"] = reddit.UserFlair{User: "oldmaster", Text: "King | Dojo Master (Sep '26)", CSSClass: "dojo-master"}
	forum.flairs["helper"] = reddit.UserFlair{User: "helper", Text: "Kazuya", CSSClass: ""}

	rec := &fakeReconciler{links: map[string]string{"c1": "https://www.reddit.com/c1", "c2": "https://www.reddit.com/c2"}}
	tal := &fakeTallier{entries: []dojo.LeaderboardEntry{
		{Rank: 1, Author: "helper", Score: 2},
		{Rank: 2, Author: "mentor", Score: 1},
	}}
	records := fakeRecords{
		{ID: "c1", Author: "helper"},
		{ID: "c2", Author: "helper"},
		{ID: "gone", Author: "mentor"},
	}
	archive := memory.NewBlobStore()
	now := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

	task := NewDojoAward(forum, rec, tal, records, archive, clock.Fixed{At: now}, awardOpts, zap.NewNop())
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), tal.start)
	assert.Equal(t, time.Date(2026, 9, 30, 23, 59, 59, 999_000_000, time.UTC), tal.end)

	assert.Equal(t, reddit.UserFlair{User: "oldmaster", Text: "King", CSSClass: "mokujin"}, forum.flairs["oldmaster"])
	assert.Equal(t, "Kazuya | Dojo Master (Oct '26)", forum.flairs["helper"].Text)
	assert.Contains(t, forum.flairSets, `template helper="Kazuya | Dojo Master (Oct '26)"/tmpl-1`)

	page := forum.wiki["dojo/leaderboard/2026-09"]
	assert.Contains(t, page, "# Dojo Leaderboard: September 2026")
	assert.Contains(t, page, "[comment](https://www.reddit.com/c1)")
	assert.NotContains(t, page, "## u/mentor", "links only for surviving comments")

	data, contentType, ok := archive.Object("standings/2026-09.json")
	require.True(t, ok)
	assert.Equal(t, "application/json", contentType)
	var got Standings
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2026-09", got.Month)
	assert.Len(t, got.Leaders, 2)
	assert.Equal(t, []string{"https://www.reddit.com/c1", "https://www.reddit.com/c2"}, got.Comments["helper"])
}

func TestDojoAwardRepeatWinnerKeepsSingleTag(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.flairs["helper"] = reddit.UserFlair{User: "helper", Text: "Kazuya | Dojo Master (Sep '26)", CSSClass: "dojo-master"}
	tal := &fakeTallier{entries: []dojo.LeaderboardEntry{{Rank: 1, Author: "helper", Score: 9}}}

	task := NewDojoAward(forum, &fakeReconciler{}, tal, fakeRecords{}, nil, clock.Fixed{At: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}, awardOpts, zap.NewNop())
	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, "Kazuya | Dojo Master (Oct '26)", forum.flairs["helper"].Text)
}

func TestDojoAwardSkipsOtherDays(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	rec := &fakeReconciler{}
	task := NewDojoAward(forum, rec, &fakeTallier{}, fakeRecords{}, nil, clock.Fixed{At: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)}, awardOpts, zap.NewNop())
	require.NoError(t, task.Run(context.Background()))
	assert.Zero(t, rec.calls)
	assert.Empty(t, forum.wikiEdits)
}

func TestDojoAwardNoLeadersStillPublishes(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	task := NewDojoAward(forum, &fakeReconciler{}, &fakeTallier{}, fakeRecords{}, nil, clock.Fixed{At: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, awardOpts, zap.NewNop())
	require.NoError(t, task.Run(context.Background()))
	assert.Empty(t, forum.flairSets)
	assert.Contains(t, forum.wiki["dojo/leaderboard/2025-12"], "No Dojo points")
}

type failingArchive struct{}

func (failingArchive) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errUpstream
}

func TestDojoAwardReportsPartialFailures(t *testing.T) {
	t.Parallel()

	forum := newFakeForum()
	forum.wikiErr = errUpstream
	tal := &fakeTallier{entries: []dojo.LeaderboardEntry{{Rank: 1, Author: "helper", Score: 1}}}
	task := NewDojoAward(forum, &fakeReconciler{}, tal, fakeRecords{}, failingArchive{}, clock.Fixed{At: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, awardOpts, zap.NewNop())

	err := task.Run(context.Background())
	require.ErrorIs(t, err, errUpstream)
	assert.ErrorContains(t, err, "publish wiki")
	assert.ErrorContains(t, err, "archive standings")
	assert.Equal(t, "Dojo Master (Mar '26)", forum.flairs["helper"].Text, "award still happened")
}
