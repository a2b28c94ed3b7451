package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DojoCleaner deletes records past the retention horizon.
type DojoCleaner struct {
	pruner Pruner
	logger *zap.Logger
}

// NewDojoCleaner builds the task.
func NewDojoCleaner(pruner Pruner, logger *zap.Logger) *DojoCleaner {
	return &DojoCleaner{pruner: pruner, logger: logger.Named("dojo-cleaner")}
}

// Run prunes once.
func (t *DojoCleaner) Run(ctx context.Context) error {
	n, err := t.pruner.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	t.logger.Info("pruned records", zap.Int64("deleted", n))
	return nil
}
