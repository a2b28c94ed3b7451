package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/dojo"
	"github.com/JakeFAU/dojobot/internal/markdown"
	"github.com/JakeFAU/dojobot/internal/storage"
)

// AwardOptions configures DojoAward.
type AwardOptions struct {
	Subreddit      string
	WikiPrefix     string
	MasterFlairID  string
	MasterCSSClass string
	FormerCSSClass string
	LinksPerLeader int
	ArchivePrefix  string
}

// AwardForum is the forum surface DojoAward needs.
type AwardForum interface {
	FlairEditor
	WikiEditor
}

// DojoAward closes out the previous month on the first day of a month:
// reconcile, tally, flair the winner, publish a wiki page and archive the
// standings.
type DojoAward struct {
	forum      AwardForum
	reconciler Reconciler
	tallier    Tallier
	records    dojo.RangeReader
	archive    storage.BlobStore
	clock      clock.Clock
	opts       AwardOptions
	logger     *zap.Logger
}

// NewDojoAward builds the task. A nil archive disables archiving.
func NewDojoAward(forum AwardForum, reconciler Reconciler, tallier Tallier, records dojo.RangeReader, archive storage.BlobStore, clk clock.Clock, opts AwardOptions, logger *zap.Logger) *DojoAward {
	if archive == nil {
		archive = storage.NoOpBlobStore{}
	}
	return &DojoAward{
		forum:      forum,
		reconciler: reconciler,
		tallier:    tallier,
		records:    records,
		archive:    archive,
		clock:      clk,
		opts:       opts,
		logger:     logger.Named("dojo-award"),
	}
}

// Standings is the archived record of a finished month.
type Standings struct {
	Month       string                  `json:"month"`
	Start       time.Time               `json:"start"`
	End         time.Time               `json:"end"`
	GeneratedAt time.Time               `json:"generated_at"`
	Leaders     []dojo.LeaderboardEntry `json:"leaders"`
	Comments    map[string][]string     `json:"comments,omitempty"`
}

// Run is a no-op except on the first day of a month (UTC).
func (t *DojoAward) Run(ctx context.Context) error {
	now := t.clock.Now()
	if now.Day() != 1 {
		t.logger.Debug("not the first of the month, skipping")
		return nil
	}
	start, end := dojo.PreviousMonthWindow(now)
	month := start.Format("2006-01")
	logger := t.logger.With(zap.String("month", month))

	permalinks, err := t.reconciler.Reconcile(ctx, start, end)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", month, err)
	}
	leaders, err := t.tallier.Tally(ctx, start, end)
	if err != nil {
		return fmt.Errorf("tally %s: %w", month, err)
	}
	links, err := t.linksByAuthor(ctx, start, end, permalinks)
	if err != nil {
		return err
	}

	var errs []error
	if len(leaders) == 0 {
		logger.Info("no leaders, nobody to award")
	} else if err := t.award(ctx, leaders[0].Author, now); err != nil {
		errs = append(errs, err)
	}

	page := path.Join(t.opts.WikiPrefix, month)
	content := markdown.MonthlyWikiPage(start, leaders, links, t.opts.LinksPerLeader)
	if err := t.forum.EditWikiPage(ctx, t.opts.Subreddit, page, content, "Dojo results for "+month); err != nil {
		errs = append(errs, fmt.Errorf("publish wiki %s: %w", page, err))
	} else {
		logger.Info("published monthly wiki page", zap.String("page", page))
	}

	if err := t.archiveStandings(ctx, Standings{
		Month:       month,
		Start:       start,
		End:         end,
		GeneratedAt: now,
		Leaders:     leaders,
		Comments:    links,
	}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (t *DojoAward) linksByAuthor(ctx context.Context, start, end time.Time, permalinks map[string]string) (map[string][]string, error) {
	recs, err := t.records.CommentsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make(map[string][]string)
	for _, rec := range recs {
		if link, ok := permalinks[rec.ID]; ok && link != "" {
			out[rec.Author] = append(out[rec.Author], link)
		}
	}
	return out, nil
}

// award moves the master flair to winner. Previous holders get the text
// before their first "|" back along with the former-master class.
func (t *DojoAward) award(ctx context.Context, winner string, at time.Time) error {
	flairs, err := t.forum.FlairList(ctx, t.opts.Subreddit)
	if err != nil {
		return fmt.Errorf("list flair: %w", err)
	}
	for _, f := range flairs {
		if f.CSSClass != t.opts.MasterCSSClass {
			continue
		}
		restored := strings.TrimSpace(strings.SplitN(f.Text, "|", 2)[0])
		if err := t.forum.SetFlair(ctx, t.opts.Subreddit, f.User, restored, t.opts.FormerCSSClass); err != nil {
			return fmt.Errorf("restore flair of %s: %w", f.User, err)
		}
		t.logger.Info("removed master flair", zap.String("user", f.User), zap.String("text", restored))
	}

	current, err := t.forum.UserFlair(ctx, t.opts.Subreddit, winner)
	if err != nil {
		return fmt.Errorf("read flair of %s: %w", winner, err)
	}
	title := markdown.WidgetTitle("Dojo Master", at)
	text := title
	if base := strings.TrimSpace(current.Text); base != "" {
		text = base + " | " + title
	}
	if err := t.forum.SetFlairTemplate(ctx, t.opts.Subreddit, winner, t.opts.MasterFlairID, text); err != nil {
		return fmt.Errorf("award %s: %w", winner, err)
	}
	t.logger.Info("awarded dojo master", zap.String("user", winner), zap.String("text", text))
	return nil
}

func (t *DojoAward) archiveStandings(ctx context.Context, s Standings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode standings: %w", err)
	}
	key := path.Join(t.opts.ArchivePrefix, s.Month+".json")
	uri, err := t.archive.PutObject(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("archive standings: %w", err)
	}
	if uri != "" {
		t.logger.Info("archived standings", zap.String("uri", uri))
	}
	return nil
}
