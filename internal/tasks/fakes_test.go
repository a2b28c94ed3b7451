package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/reddit"
	"github.com/JakeFAU/dojobot/internal/twitch"
)

// fakeForum implements every forum interface over in-memory state.
type fakeForum struct {
	thread    reddit.Submission
	threadErr error

	widgets   reddit.Widgets
	updated   []reddit.Widget
	updateErr error

	wiki      map[string]string
	wikiEdits []string
	wikiErr   error

	flairs    map[string]reddit.UserFlair
	flairSets []string

	reasons   []reddit.RemovalReason
	removed   []string
	messages  []string
	removeErr map[string]error
}

func newFakeForum() *fakeForum {
	return &fakeForum{
		wiki:   map[string]string{},
		flairs: map[string]reddit.UserFlair{},
	}
}

func (f *fakeForum) StickyThread(context.Context, string) (reddit.Submission, error) {
	return f.thread, f.threadErr
}

func (f *fakeForum) Widgets(context.Context, string) (reddit.Widgets, error) {
	return f.widgets, nil
}

func (f *fakeForum) UpdateWidget(_ context.Context, _ string, w reddit.Widget) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, w)
	return nil
}

func (f *fakeForum) WikiPage(_ context.Context, _ string, page string) (string, error) {
	content, ok := f.wiki[page]
	if !ok {
		return "", reddit.ErrNotFound
	}
	return content, nil
}

func (f *fakeForum) EditWikiPage(_ context.Context, _ string, page, content, _ string) error {
	if f.wikiErr != nil {
		return f.wikiErr
	}
	f.wiki[page] = content
	f.wikiEdits = append(f.wikiEdits, page)
	return nil
}

func (f *fakeForum) FlairList(context.Context, string) ([]reddit.UserFlair, error) {
	out := make([]reddit.UserFlair, 0, len(f.flairs))
	for _, fl := range f.flairs {
		out = append(out, fl)
	}
	return out, nil
}

func (f *fakeForum) UserFlair(_ context.Context, _ string, user string) (reddit.UserFlair, error) {
	if fl, ok := f.flairs[user]; ok {
		return fl, nil
	}
	return reddit.UserFlair{User: user}, nil
}

func (f *fakeForum) SetFlair(_ context.Context, _ string, user, text, css string) error {
	f.flairs[user] = reddit.UserFlair{User: user, Text: text, CSSClass: css}
	f.flairSets = append(f.flairSets, fmt.Sprintf("set %s=%q/%s", user, text, css))
	return nil
}

func (f *fakeForum) SetFlairTemplate(_ context.Context, _ string, user, templateID, text string) error {
	// the template carries the master class
	f.flairs[user] = reddit.UserFlair{User: user, Text: text, CSSClass: "dojo-master"}
	f.flairSets = append(f.flairSets, fmt.Sprintf("template %s=%q/%s", user, text, templateID))
	return nil
}

func (f *fakeForum) RemovalReasons(context.Context, string) ([]reddit.RemovalReason, error) {
	return f.reasons, nil
}

func (f *fakeForum) Remove(_ context.Context, fullname, reasonID string) error {
	if err := f.removeErr[fullname]; err != nil {
		return err
	}
	f.removed = append(f.removed, fullname+":"+reasonID)
	return nil
}

func (f *fakeForum) SendRemovalMessage(_ context.Context, fullname, title, _, kind string) error {
	f.messages = append(f.messages, fullname+":"+title+":"+kind)
	return nil
}

type fakeIngester struct {
	threadID string
	n        int
	err      error
}

func (f *fakeIngester) Ingest(_ context.Context, threadID string, _ dojo.CommentFeed) (int, error) {
	f.threadID = threadID
	return f.n, f.err
}

type fakeTallier struct {
	entries []dojo.LeaderboardEntry
	start   time.Time
	end     time.Time
}

func (f *fakeTallier) Tally(_ context.Context, start, end time.Time) ([]dojo.LeaderboardEntry, error) {
	f.start, f.end = start, end
	return f.entries, nil
}

type fakeReconciler struct {
	links map[string]string
	calls int
}

func (f *fakeReconciler) Reconcile(context.Context, time.Time, time.Time) (map[string]string, error) {
	f.calls++
	return f.links, nil
}

type fakeRecords []dojo.CommentRecord

func (f fakeRecords) CommentsInRange(context.Context, time.Time, time.Time) ([]dojo.CommentRecord, error) {
	return f, nil
}

type fakeChannels struct {
	channels []twitch.Channel
	err      error
}

func (f fakeChannels) LiveChannels(context.Context, string, int) ([]twitch.Channel, error) {
	return f.channels, f.err
}

type fakePruner struct {
	n   int64
	err error
}

func (f fakePruner) Prune(context.Context) (int64, error) { return f.n, f.err }

type submissionFeed struct {
	posts []reddit.Submission
	err   error
}

func (f *submissionFeed) Next(context.Context) (reddit.Submission, bool, error) {
	if len(f.posts) == 0 {
		return reddit.Submission{}, false, f.err
	}
	p := f.posts[0]
	f.posts = f.posts[1:]
	return p, true, nil
}

var errUpstream = errors.New("upstream unavailable")
