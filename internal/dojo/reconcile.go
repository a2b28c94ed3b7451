package dojo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/metrics"
)

// ReconcileStore is what Reconciler needs from the record store.
type ReconcileStore interface {
	RangeReader
	RecordDeleter
}

// Reconciler drops records whose upstream comment was deleted or removed.
type Reconciler struct {
	store  ReconcileStore
	lookup CommentLookup
	logger *zap.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(store ReconcileStore, lookup CommentLookup, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, lookup: lookup, logger: logger}
}

// Reconcile checks every record in [start, end] upstream. Records whose
// comment is gone or whose body is now empty are deleted. The result maps
// each surviving record id to its permalink. Records whose lookup fails for
// any other reason are left in place and omitted from the result.
func (r *Reconciler) Reconcile(ctx context.Context, start, end time.Time) (map[string]string, error) {
	records, err := r.store.CommentsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	links := make(map[string]string, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return links, fmt.Errorf("reconcile: %w", err)
		}
		c, err := r.lookup.Comment(ctx, rec.ID)
		switch {
		case errors.Is(err, ErrCommentGone):
			r.drop(ctx, rec.ID, "deleted record for missing comment")
			continue
		case err != nil:
			metrics.ObserveReconciled(metrics.OutcomeFailed)
			r.logger.Warn("comment lookup failed", zap.String("comment_id", rec.ID), zap.Error(err))
			continue
		case c.Body == "":
			r.drop(ctx, rec.ID, "deleted record for removed comment")
			continue
		}
		metrics.ObserveReconciled(metrics.OutcomeKept)
		links[rec.ID] = c.Permalink
	}
	return links, nil
}

func (r *Reconciler) drop(ctx context.Context, id, msg string) {
	if err := r.store.DeleteComment(ctx, id); err != nil {
		metrics.ObserveReconciled(metrics.OutcomeFailed)
		r.logger.Error("delete record failed", zap.String("comment_id", id), zap.Error(err))
		return
	}
	metrics.ObserveReconciled(metrics.OutcomeDeleted)
	r.logger.Info(msg, zap.String("comment_id", id))
}
