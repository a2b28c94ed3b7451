package dojo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/metrics"
)

// DefaultRetention is the record retention horizon (20 weeks).
const DefaultRetention = 20 * 7 * 24 * time.Hour

// Pruner deletes records past the retention horizon.
type Pruner struct {
	store   AgeDeleter
	clock   clock.Clock
	horizon time.Duration
	logger  *zap.Logger
}

// NewPruner constructs a Pruner. A non-positive horizon uses DefaultRetention.
func NewPruner(store AgeDeleter, clk clock.Clock, horizon time.Duration, logger *zap.Logger) *Pruner {
	if horizon <= 0 {
		horizon = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pruner{store: store, clock: clk, horizon: horizon, logger: logger}
}

// Prune deletes records created strictly before now minus the horizon.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().Add(-p.horizon)
	n, err := p.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	metrics.AddPruned(n)
	p.logger.Info("pruned old records", zap.Time("cutoff", cutoff), zap.Int64("deleted", n))
	return n, nil
}
