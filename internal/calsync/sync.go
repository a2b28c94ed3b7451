// Package calsync copies upcoming tournaments from the tournament provider
// into the subreddit's Google Calendar, skipping events already present.
package calsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
	"github.com/JakeFAU/dojobot/internal/gcal"
	"github.com/JakeFAU/dojobot/internal/startgg"
)

// DefaultHorizon is how far ahead tournaments are fetched.
const DefaultHorizon = 365 * 24 * time.Hour

// Source lists tournaments.
type Source interface {
	Tournaments(ctx context.Context, videogameID int, after, before time.Time) ([]startgg.Tournament, error)
}

// Sink stores calendar events.
type Sink interface {
	List(ctx context.Context, from, to time.Time) ([]gcal.Event, error)
	Insert(ctx context.Context, ev gcal.Event) error
}

// Result counts what one Sync did.
type Result struct {
	Fetched  int
	Inserted int
	Skipped  int
	Failed   int
}

// Syncer runs the tournament to calendar copy.
type Syncer struct {
	source      Source
	sink        Sink
	clock       clock.Clock
	videogameID int
	horizon     time.Duration
	logger      *zap.Logger
}

// New builds a Syncer. A non-positive horizon uses DefaultHorizon.
func New(source Source, sink Sink, clk clock.Clock, videogameID int, horizon time.Duration, logger *zap.Logger) *Syncer {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		source:      source,
		sink:        sink,
		clock:       clk,
		videogameID: videogameID,
		horizon:     horizon,
		logger:      logger.Named("calsync"),
	}
}

// EventFor renders a tournament as a calendar event.
func EventFor(t startgg.Tournament) gcal.Event {
	ev := gcal.Event{
		Summary: fmt.Sprintf("[%s](%s)", t.Name, t.URL),
		Start:   t.Start.UTC(),
		End:     t.End.UTC(),
	}
	if t.TwitchURL != "" {
		ev.Location = fmt.Sprintf("[Twitch](%s)", t.TwitchURL)
	}
	return ev
}

// Sync fetches tournaments from now to now+horizon and inserts the ones the
// calendar does not already hold. Insert failures are counted and returned
// together after every tournament has been tried.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var res Result
	from := s.clock.Now()
	to := from.Add(s.horizon)

	tournaments, err := s.source.Tournaments(ctx, s.videogameID, from, to)
	if err != nil {
		return res, fmt.Errorf("fetch tournaments: %w", err)
	}
	res.Fetched = len(tournaments)
	if res.Fetched == 0 {
		s.logger.Info("no tournaments found")
		return res, nil
	}

	existing, err := s.sink.List(ctx, from, to)
	if err != nil {
		return res, fmt.Errorf("list calendar: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(tournaments))
	for _, ev := range existing {
		seen[ev.Key()] = struct{}{}
	}

	var errs []error
	for _, t := range tournaments {
		ev := EventFor(t)
		if _, dup := seen[ev.Key()]; dup {
			res.Skipped++
			continue
		}
		if err := s.sink.Insert(ctx, ev); err != nil {
			res.Failed++
			s.logger.Warn("insert failed", zap.String("summary", ev.Summary), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		seen[ev.Key()] = struct{}{}
		res.Inserted++
	}
	s.logger.Info("calendar synced",
		zap.Int("fetched", res.Fetched),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, errors.Join(errs...)
}
