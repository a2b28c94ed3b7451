package dojo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/metrics"
)

// Ingestion bounds applied when options leave them unset.
const (
	DefaultMaxFeedItems     = 1000
	DefaultMaxAncestorDepth = 100
)

// IngestOptions tunes an Ingester.
type IngestOptions struct {
	FillerPhrases    []string
	MaxFeedItems     int
	MaxAncestorDepth int
}

// Ingester turns feed comments into persisted records.
type Ingester struct {
	store   RecordWriter
	parents ParentResolver
	opts    IngestOptions
	logger  *zap.Logger
}

// NewIngester constructs an Ingester.
func NewIngester(store RecordWriter, parents ParentResolver, opts IngestOptions, logger *zap.Logger) *Ingester {
	if opts.MaxFeedItems <= 0 {
		opts.MaxFeedItems = DefaultMaxFeedItems
	}
	if opts.MaxAncestorDepth <= 0 {
		opts.MaxAncestorDepth = DefaultMaxAncestorDepth
	}
	if opts.FillerPhrases == nil {
		opts.FillerPhrases = DefaultFillerPhrases
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{store: store, parents: parents, opts: opts, logger: logger}
}

// Ingest drains feed, keeps comments on threadID that pass the filters, and
// stores them. It returns the number of records that were new.
//
// A feed error stops collection but whatever was collected is still
// processed. A failed ancestor walk or insert skips only that comment.
func (i *Ingester) Ingest(ctx context.Context, threadID string, feed CommentFeed) (int, error) {
	pending := i.collect(ctx, threadID, feed)

	inserted := 0
	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return inserted, fmt.Errorf("ingest: %w", err)
		}
		rec, ok := i.qualify(ctx, c)
		if !ok {
			continue
		}
		added, err := i.store.InsertComment(ctx, rec)
		if err != nil {
			i.logger.Error("insert comment failed", zap.String("comment_id", c.ID), zap.Error(err))
			continue
		}
		if !added {
			i.logger.Debug("comment already stored", zap.String("comment_id", c.ID))
			continue
		}
		inserted++
	}
	metrics.AddIngested(inserted)
	i.logger.Info("ingested dojo comments",
		zap.String("thread_id", threadID),
		zap.Int("observed", len(pending)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

func (i *Ingester) collect(ctx context.Context, threadID string, feed CommentFeed) []Comment {
	var pending []Comment
	for n := 0; n < i.opts.MaxFeedItems; n++ {
		c, ok, err := feed.Next(ctx)
		if err != nil {
			i.logger.Error("comment feed read failed", zap.Error(err))
			break
		}
		if !ok {
			break
		}
		if c.ThreadID != threadID {
			continue
		}
		pending = append(pending, c)
	}
	return pending
}

func (i *Ingester) qualify(ctx context.Context, c Comment) (CommentRecord, bool) {
	root, err := i.root(ctx, c)
	if err != nil {
		i.logger.Warn("resolve top-level comment failed", zap.String("comment_id", c.ID), zap.Error(err))
		return CommentRecord{}, false
	}
	if root.Author == c.Author {
		return CommentRecord{}, false
	}

	author := c.Author
	if author == "" {
		author = DeletedAuthor
	}

	if IsUnhelpful(c.Body, i.opts.FillerPhrases) {
		i.logger.Debug("skipping unhelpful comment", zap.String("comment_id", c.ID))
		return CommentRecord{}, false
	}

	return CommentRecord{
		ID:         c.ID,
		CreatedUTC: c.CreatedUTC.UTC(),
		Author:     author,
		Submission: c.ThreadID,
	}, true
}

// root walks up the reply chain to the top-level comment. A top-level
// comment is its own root.
func (i *Ingester) root(ctx context.Context, c Comment) (Comment, error) {
	ancestor := c
	for depth := 0; !ancestor.IsRoot(); depth++ {
		if depth >= i.opts.MaxAncestorDepth {
			return Comment{}, fmt.Errorf("reply chain deeper than %d", i.opts.MaxAncestorDepth)
		}
		parent, err := i.parents.Parent(ctx, ancestor)
		if err != nil {
			return Comment{}, fmt.Errorf("parent of %s: %w", ancestor.ID, err)
		}
		ancestor = parent
	}
	return ancestor, nil
}
