package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/dojobot/internal/dojo"
)

var _ dojo.Store = (*CommentStore)(nil)

// CommentStore provides an in-memory comment record store for development
// dry runs and tests.
type CommentStore struct {
	mu      sync.RWMutex
	records map[string]dojo.CommentRecord
}

// NewCommentStore constructs a CommentStore.
func NewCommentStore() *CommentStore {
	return &CommentStore{records: make(map[string]dojo.CommentRecord)}
}

// InsertComment stores rec unless its id already exists.
func (s *CommentStore) InsertComment(_ context.Context, rec dojo.CommentRecord) (bool, error) {
	if rec.ID == "" {
		return false, errors.New("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return false, nil
	}
	rec.CreatedUTC = rec.CreatedUTC.UTC()
	s.records[rec.ID] = rec
	return true, nil
}

// AuthorScores counts records per author in [start, end], excluding the
// deleted-author sentinel, highest count first.
func (s *CommentStore) AuthorScores(_ context.Context, start, end time.Time) ([]dojo.AuthorScore, error) {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, rec := range s.records {
		if rec.Author == dojo.DeletedAuthor || !within(rec.CreatedUTC, start, end) {
			continue
		}
		counts[rec.Author]++
	}
	s.mu.RUnlock()

	out := make([]dojo.AuthorScore, 0, len(counts))
	for author, n := range counts {
		out = append(out, dojo.AuthorScore{Author: author, Score: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Author < out[j].Author
	})
	return out, nil
}

// CommentsInRange lists records created within [start, end], oldest first.
func (s *CommentStore) CommentsInRange(_ context.Context, start, end time.Time) ([]dojo.CommentRecord, error) {
	s.mu.RLock()
	var out []dojo.CommentRecord
	for _, rec := range s.records {
		if within(rec.CreatedUTC, start, end) {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedUTC.Equal(out[j].CreatedUTC) {
			return out[i].CreatedUTC.Before(out[j].CreatedUTC)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteComment removes a record by id.
func (s *CommentStore) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// DeleteOlderThan removes records created strictly before cutoff.
func (s *CommentStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.CreatedUTC.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (s *CommentStore) Ping(context.Context) error { return nil }

// Len reports the number of stored records.
func (s *CommentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
