package dojo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeStore struct {
	mu        sync.Mutex
	records   map[string]CommentRecord
	failIDs   map[string]bool
	deleted   []string
	scoresErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]CommentRecord{}, failIDs: map[string]bool{}}
}

func (s *fakeStore) InsertComment(_ context.Context, rec CommentRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[rec.ID] {
		return false, errors.New("insert failed")
	}
	if _, ok := s.records[rec.ID]; ok {
		return false, nil
	}
	s.records[rec.ID] = rec
	return true, nil
}

func (s *fakeStore) AuthorScores(_ context.Context, start, end time.Time) ([]AuthorScore, error) {
	if s.scoresErr != nil {
		return nil, s.scoresErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, r := range s.records {
		if r.Author == DeletedAuthor || r.CreatedUTC.Before(start) || r.CreatedUTC.After(end) {
			continue
		}
		counts[r.Author]++
	}
	out := make([]AuthorScore, 0, len(counts))
	for a, n := range counts {
		out = append(out, AuthorScore{Author: a, Score: n})
	}
	return out, nil
}

func (s *fakeStore) CommentsInRange(_ context.Context, start, end time.Time) ([]CommentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CommentRecord
	for _, r := range s.records {
		if r.CreatedUTC.Before(start) || r.CreatedUTC.After(end) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if r.CreatedUTC.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// sliceFeed replays a fixed list and then reports no more data. A non-nil
// errAt fails the read at that position.
type sliceFeed struct {
	items []Comment
	pos   int
	errAt int
	reads int
}

func newFeed(items ...Comment) *sliceFeed {
	return &sliceFeed{items: items, errAt: -1}
}

func (f *sliceFeed) Next(context.Context) (Comment, bool, error) {
	f.reads++
	if f.pos == f.errAt {
		f.pos++
		return Comment{}, false, errors.New("feed read failed")
	}
	if f.pos >= len(f.items) {
		return Comment{}, false, nil
	}
	c := f.items[f.pos]
	f.pos++
	return c, true, nil
}

type commentIndex struct {
	byID    map[string]Comment
	failIDs map[string]bool
}

func newIndex(comments ...Comment) *commentIndex {
	idx := &commentIndex{byID: map[string]Comment{}, failIDs: map[string]bool{}}
	for _, c := range comments {
		idx.byID[c.ID] = c
	}
	return idx
}

func (x *commentIndex) Parent(_ context.Context, c Comment) (Comment, error) {
	if len(c.ParentID) < 3 {
		return Comment{}, errors.New("no parent")
	}
	return x.Comment(context.Background(), c.ParentID[3:])
}

func (x *commentIndex) Comment(_ context.Context, id string) (Comment, error) {
	if x.failIDs[id] {
		return Comment{}, errors.New("lookup failed")
	}
	c, ok := x.byID[id]
	if !ok {
		return Comment{}, fmt.Errorf("comment %s: %w", id, ErrCommentGone)
	}
	return c, nil
}
