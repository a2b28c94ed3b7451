package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/markdown"
	"github.com/JakeFAU/dojobot/internal/reddit"
)

// findTextArea returns the first sidebar textarea whose name contains name.
func findTextArea(ws reddit.Widgets, name string) (*reddit.TextAreaWidget, error) {
	for _, w := range ws.Sidebar {
		if ta, ok := w.(*reddit.TextAreaWidget); ok && strings.Contains(ta.ShortName, name) {
			return ta, nil
		}
	}
	return nil, fmt.Errorf("textarea %q: %w", name, reddit.ErrWidgetNotFound)
}

// updateSection splices body into the named section of the old sidebar wiki
// page. A page without the section's markers is logged and left alone.
func updateSection(ctx context.Context, wiki WikiEditor, logger *zap.Logger, sub, page, section, body string) error {
	doc, err := wiki.WikiPage(ctx, sub, page)
	if err != nil {
		return fmt.Errorf("read sidebar: %w", err)
	}
	updated, err := markdown.ReplaceSection(doc, section, body)
	if errors.Is(err, markdown.ErrSectionNotFound) {
		logger.Warn("sidebar has no section markers", zap.String("section", section), zap.String("page", page))
		return nil
	}
	if err != nil {
		return err //nolint:wrapcheck // ReplaceSection names the marker
	}
	if updated == doc {
		return nil
	}
	if err := wiki.EditWikiPage(ctx, sub, page, updated, "update "+section); err != nil {
		return fmt.Errorf("write sidebar: %w", err)
	}
	logger.Info("updated old sidebar", zap.String("section", section))
	return nil
}
