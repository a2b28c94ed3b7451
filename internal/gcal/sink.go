// Package gcal writes tournament events to a Google Calendar.
package gcal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Event is a calendar entry in UTC.
type Event struct {
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
}

// Key identifies an event for deduplication: summary plus start instant.
func (e Event) Key() string {
	return e.Summary + "@" + e.Start.UTC().Format(time.RFC3339)
}

// Sink lists and inserts events on one calendar.
type Sink struct {
	svc        *calendar.Service
	calendarID string
	logger     *zap.Logger
}

// New builds a Sink. opts typically carry option.WithCredentialsFile.
func New(ctx context.Context, calendarID string, logger *zap.Logger, opts ...option.ClientOption) (*Sink, error) {
	if calendarID == "" {
		return nil, fmt.Errorf("calendar id is required")
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{svc: svc, calendarID: calendarID, logger: logger.Named("gcal")}, nil
}

// List returns the events overlapping [from, to].
func (s *Sink) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	var out []Event
	call := s.svc.Events.List(s.calendarID).
		TimeMin(from.UTC().Format(time.RFC3339)).
		TimeMax(to.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false)
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			ev, err := fromAPI(item)
			if err != nil {
				s.logger.Warn("skipping unparsable event", zap.String("id", item.Id), zap.Error(err))
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Insert creates ev on the calendar. An empty Location is omitted.
func (s *Sink) Insert(ctx context.Context, ev Event) error {
	created, err := s.svc.Events.Insert(s.calendarID, toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert event %q: %w", ev.Summary, err)
	}
	s.logger.Info("event created", zap.String("summary", ev.Summary), zap.String("link", created.HtmlLink))
	return nil
}

func toAPI(ev Event) *calendar.Event {
	return &calendar.Event{
		Summary:  ev.Summary,
		Location: ev.Location,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}
}

func fromAPI(item *calendar.Event) (Event, error) {
	start, err := parseEventTime(item.Start)
	if err != nil {
		return Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseEventTime(item.End)
	if err != nil {
		return Event{}, fmt.Errorf("end: %w", err)
	}
	return Event{Summary: item.Summary, Location: item.Location, Start: start, End: end}, nil
}

// parseEventTime handles timed and all-day events.
func parseEventTime(dt *calendar.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, fmt.Errorf("missing time")
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q: %w", dt.DateTime, err)
		}
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, dt.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", dt.Date, err)
	}
	return t, nil
}
