package reddit

import (
	"context"
)

// DefaultSeenLimit bounds how many ids a Stream remembers.
const DefaultSeenLimit = 1000

// Stream turns a newest-first listing into a pull feed of unseen items,
// oldest first. After a poll's items are drained, Next reports ok=false once
// and the following call polls again.
type Stream[T any] struct {
	fetch func(ctx context.Context) ([]T, error)
	key   func(T) string
	limit int

	seen  map[string]struct{}
	order []string
	buf   []T
	// drained is set once a poll's buffer is consumed.
	drained bool
}

// NewStream builds a Stream. fetch returns items newest first.
func NewStream[T any](fetch func(ctx context.Context) ([]T, error), key func(T) string, limit int) *Stream[T] {
	if limit <= 0 {
		limit = DefaultSeenLimit
	}
	return &Stream[T]{
		fetch: fetch,
		key:   key,
		limit: limit,
		seen:  make(map[string]struct{}, limit),
	}
}

// Next returns the next unseen item.
func (s *Stream[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if len(s.buf) == 0 {
		if s.drained {
			s.drained = false
			return zero, false, nil
		}
		if err := s.poll(ctx); err != nil {
			return zero, false, err
		}
		if len(s.buf) == 0 {
			return zero, false, nil
		}
	}
	item := s.buf[0]
	s.buf = s.buf[1:]
	if len(s.buf) == 0 {
		s.drained = true
	}
	return item, true, nil
}

func (s *Stream[T]) poll(ctx context.Context) error {
	items, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	for i := len(items) - 1; i >= 0; i-- {
		k := s.key(items[i])
		if _, ok := s.seen[k]; ok {
			continue
		}
		s.remember(k)
		s.buf = append(s.buf, items[i])
	}
	return nil
}

func (s *Stream[T]) remember(k string) {
	s.seen[k] = struct{}{}
	s.order = append(s.order, k)
	if len(s.order) > s.limit {
		delete(s.seen, s.order[0])
		s.order = s.order[1:]
	}
}
