package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/reddit"
)

// LinksForum is the forum surface DojoLinks needs.
type LinksForum interface {
	ThreadFinder
	WidgetEditor
	WikiEditor
}

// LinksOptions configures DojoLinks.
type LinksOptions struct {
	Subreddit        string
	SidebarPage      string
	PermalinkBase    string
	LinkText         string
	MenuLinkText     string
	UsefulWidgetName string
	ImageWidgetName  string
}

// DojoLinks points every sidebar and menu link to the current Dojo thread.
// The previous thread is identified by the bold link in the old sidebar.
type DojoLinks struct {
	forum   LinksForum
	opts    LinksOptions
	oldLink *regexp.Regexp
	logger  *zap.Logger
}

// NewDojoLinks builds the task.
func NewDojoLinks(forum LinksForum, opts LinksOptions, logger *zap.Logger) *DojoLinks {
	return &DojoLinks{
		forum:   forum,
		opts:    opts,
		oldLink: regexp.MustCompile(`\[\*\*` + regexp.QuoteMeta(opts.LinkText) + `\*\*\]\(([^ )]*)\)`),
		logger:  logger.Named("dojo-links"),
	}
}

// Run performs one pass.
func (t *DojoLinks) Run(ctx context.Context) error {
	thread, err := t.forum.StickyThread(ctx, t.opts.Subreddit)
	if errors.Is(err, reddit.ErrNotFound) {
		return dojo.ErrNoThread
	}
	if err != nil {
		return fmt.Errorf("find dojo thread: %w", err)
	}
	newFull := t.absolute(thread.Permalink)
	newPath := pathOf(newFull)

	sidebar, err := t.forum.WikiPage(ctx, t.opts.Subreddit, t.opts.SidebarPage)
	if err != nil {
		return fmt.Errorf("read sidebar: %w", err)
	}
	m := t.oldLink.FindStringSubmatch(sidebar)
	if m == nil {
		return fmt.Errorf("no %q link in %s", t.opts.LinkText, t.opts.SidebarPage)
	}
	oldFull := t.absolute(m[1])
	oldPath := pathOf(oldFull)
	if oldFull == newFull {
		t.logger.Debug("links already current", zap.String("url", newFull))
		return nil
	}
	logger := t.logger.With(zap.String("old", oldFull), zap.String("new", newFull))

	var errs []error
	if err := t.updateWidgets(ctx, logger, oldFull, newFull); err != nil {
		errs = append(errs, err)
	}

	updated := strings.ReplaceAll(sidebar, oldFull, newFull)
	updated = strings.ReplaceAll(updated, oldPath, newPath)
	if err := t.forum.EditWikiPage(ctx, t.opts.Subreddit, t.opts.SidebarPage, updated, "update Dojo link"); err != nil {
		errs = append(errs, fmt.Errorf("write sidebar: %w", err))
	} else {
		logger.Info("updated links in the old sidebar")
	}
	return errors.Join(errs...)
}

func (t *DojoLinks) updateWidgets(ctx context.Context, logger *zap.Logger, oldFull, newFull string) error {
	widgets, err := t.forum.Widgets(ctx, t.opts.Subreddit)
	if err != nil {
		return fmt.Errorf("list widgets: %w", err)
	}
	var errs []error
	update := func(w reddit.Widget, what string) {
		if err := t.forum.UpdateWidget(ctx, t.opts.Subreddit, w); err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", what, err))
			return
		}
		logger.Info("updated link", zap.String("widget", what))
	}

	for _, w := range widgets.Topbar {
		menu, ok := w.(*reddit.MenuWidget)
		if ok && setMenuLink(menu.Data, t.opts.MenuLinkText, newFull) {
			update(menu, "menu")
		}
	}
	for _, w := range widgets.Sidebar {
		switch w := w.(type) {
		case *reddit.TextAreaWidget:
			if !strings.Contains(w.ShortName, t.opts.UsefulWidgetName) {
				continue
			}
			text := strings.ReplaceAll(w.Text, oldFull, newFull)
			if text != w.Text {
				w.Text = text
				update(w, w.ShortName)
			}
		case *reddit.ImageWidget:
			if strings.Contains(w.ShortName, t.opts.ImageWidgetName) && len(w.Data) > 0 && w.Data[0].LinkURL != newFull {
				w.Data[0].LinkURL = newFull
				update(w, w.ShortName)
			}
		}
	}
	return errors.Join(errs...)
}

// setMenuLink points the first link (or submenu link) labelled text at target.
func setMenuLink(links []reddit.MenuLink, text, target string) bool {
	for i := range links {
		if links[i].Text == text && links[i].URL != "" {
			if links[i].URL == target {
				return false
			}
			links[i].URL = target
			return true
		}
		if setMenuLink(links[i].Children, text, target) {
			return true
		}
	}
	return false
}

func (t *DojoLinks) absolute(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return strings.TrimRight(t.opts.PermalinkBase, "/") + link
}

func pathOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return link
	}
	return u.Path
}
