package dojo

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DeletedAuthor stands in for an author that can no longer be resolved.
const DeletedAuthor = "[deleted]"

// ErrNoThread is returned when the subreddit has no pinned Dojo thread.
var ErrNoThread = errors.New("dojo thread not found")

// ErrCommentGone is returned by a CommentLookup when the comment no longer
// exists upstream.
var ErrCommentGone = errors.New("comment no longer exists")

// CommentRecord is one persisted, point-earning comment.
type CommentRecord struct {
	ID         string    `json:"id"`
	CreatedUTC time.Time `json:"created_utc"`
	Author     string    `json:"author"`
	Submission string    `json:"submission,omitempty"`
}

// Comment is a comment as observed on the forum.
type Comment struct {
	ID         string
	ParentID   string // fullname: t1_ for a comment, t3_ for the thread
	ThreadID   string // bare thread id without the t3_ prefix
	Author     string
	Body       string
	Permalink  string
	CreatedUTC time.Time
}

// IsRoot reports whether the comment replies directly to its thread.
func (c Comment) IsRoot() bool {
	return c.ParentID == "" || strings.HasPrefix(c.ParentID, "t3_")
}

// AuthorScore is an aggregated per-author count.
type AuthorScore struct {
	Author string `json:"author"`
	Score  int    `json:"score"`
}

// LeaderboardEntry is a ranked author.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Author string `json:"author"`
	Score  int    `json:"score"`
}

// RecordWriter persists comment records.
type RecordWriter interface {
	// InsertComment stores rec unless its id already exists. It reports
	// whether a new row was written.
	InsertComment(ctx context.Context, rec CommentRecord) (bool, error)
}

// ScoreReader aggregates comment counts per author.
type ScoreReader interface {
	// AuthorScores returns per-author counts for records created within
	// [start, end], excluding DeletedAuthor.
	AuthorScores(ctx context.Context, start, end time.Time) ([]AuthorScore, error)
}

// RangeReader lists records in a window.
type RangeReader interface {
	CommentsInRange(ctx context.Context, start, end time.Time) ([]CommentRecord, error)
}

// RecordDeleter removes a single record.
type RecordDeleter interface {
	DeleteComment(ctx context.Context, id string) error
}

// AgeDeleter removes records older than a cutoff.
type AgeDeleter interface {
	// DeleteOlderThan removes records created strictly before cutoff and
	// returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the full comment record store.
type Store interface {
	RecordWriter
	ScoreReader
	RangeReader
	RecordDeleter
	AgeDeleter
}

// CommentFeed yields newly observed comments. Next returns ok=false when
// nothing more is available right now.
type CommentFeed interface {
	Next(ctx context.Context) (c Comment, ok bool, err error)
}

// ParentResolver fetches the parent comment of a reply.
type ParentResolver interface {
	Parent(ctx context.Context, c Comment) (Comment, error)
}

// CommentLookup fetches a comment's current upstream state.
type CommentLookup interface {
	Comment(ctx context.Context, id string) (Comment, error)
}
