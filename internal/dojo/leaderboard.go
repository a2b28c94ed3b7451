package dojo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// RankLeaders orders scores and assigns dense ranks. The result holds the
// top size authors plus every author whose score equals the cutoff score,
// the score at position size-1+trailerOffset (clamped to the last entry).
// DeletedAuthor is never ranked.
func RankLeaders(scores []AuthorScore, size, trailerOffset int) []LeaderboardEntry {
	if size <= 0 {
		return nil
	}
	sorted := make([]AuthorScore, 0, len(scores))
	for _, s := range scores {
		if s.Author == DeletedAuthor || s.Author == "" {
			continue
		}
		sorted = append(sorted, s)
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortStableFunc(sorted, func(a, b AuthorScore) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Author, b.Author)
	})

	cutoffIdx := min(max(size-1+trailerOffset, 0), len(sorted)-1)
	cutoff := sorted[cutoffIdx].Score

	entries := make([]LeaderboardEntry, 0, size)
	rank := 0
	prev := 0
	for idx, s := range sorted {
		if idx >= size && s.Score != cutoff {
			continue
		}
		if rank == 0 || s.Score != prev {
			rank++
			prev = s.Score
		}
		entries = append(entries, LeaderboardEntry{Rank: rank, Author: s.Author, Score: s.Score})
	}
	return entries
}

// Tallier computes the leaderboard for a window.
type Tallier struct {
	scores        ScoreReader
	size          int
	trailerOffset int
}

// NewTallier constructs a Tallier.
func NewTallier(scores ScoreReader, size, trailerOffset int) *Tallier {
	return &Tallier{scores: scores, size: size, trailerOffset: trailerOffset}
}

// Tally returns the ranked leaderboard for records in [start, end].
func (t *Tallier) Tally(ctx context.Context, start, end time.Time) ([]LeaderboardEntry, error) {
	scores, err := t.scores.AuthorScores(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("tally scores: %w", err)
	}
	return RankLeaders(scores, t.size, t.trailerOffset), nil
}
