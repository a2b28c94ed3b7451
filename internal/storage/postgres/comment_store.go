// Package postgres provides the Postgres-backed comment record store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/dojobot/internal/dojo"
)

// DefaultTable holds Dojo comment records unless configured otherwise.
const DefaultTable = "dojo_comments"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for comment rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Ping(context.Context) error
	Close()
}

var _ dojo.Store = (*CommentStore)(nil)

// CommentStore persists Dojo comment records. Every call is a single
// autocommit statement, so a failed write never affects other rows.
type CommentStore struct {
	pool  pool
	table string
}

// NewCommentStore creates a Postgres-backed CommentStore using the provided config.
func NewCommentStore(ctx context.Context, cfg Config) (*CommentStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &CommentStore{pool: p, table: table}, nil
}

// NewCommentStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewCommentStoreWithPool(p pool, table string) (*CommentStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &CommentStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *CommentStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *CommentStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the comment table and its time index if missing.
func (s *CommentStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	created_utc TIMESTAMPTZ NOT NULL,
	author TEXT NOT NULL,
	submission TEXT NOT NULL DEFAULT ''
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_utc_idx ON %s (created_utc)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertComment stores rec unless a row with the same id exists.
func (s *CommentStore) InsertComment(ctx context.Context, rec dojo.CommentRecord) (bool, error) {
	if rec.ID == "" {
		return false, fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, created_utc, author, submission)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`, s.table)

	tag, err := s.pool.Exec(ctx, query, rec.ID, rec.CreatedUTC.UTC(), rec.Author, rec.Submission)
	if err != nil {
		return false, fmt.Errorf("insert comment %s: %w", rec.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// AuthorScores counts records per author in [start, end], excluding the
// deleted-author sentinel.
func (s *CommentStore) AuthorScores(ctx context.Context, start, end time.Time) ([]dojo.AuthorScore, error) {
	query := fmt.Sprintf(`
SELECT author, count(*)
FROM %s
WHERE created_utc BETWEEN $1 AND $2 AND author <> $3
GROUP BY author
ORDER BY count(*) DESC, author`, s.table)

	rows, err := s.pool.Query(ctx, query, start.UTC(), end.UTC(), dojo.DeletedAuthor)
	if err != nil {
		return nil, fmt.Errorf("query author scores: %w", err)
	}
	defer rows.Close()

	var out []dojo.AuthorScore
	for rows.Next() {
		var (
			author string
			count  int64
		)
		if err := rows.Scan(&author, &count); err != nil {
			return nil, fmt.Errorf("scan author score: %w", err)
		}
		out = append(out, dojo.AuthorScore{Author: author, Score: int(count)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate author scores: %w", err)
	}
	return out, nil
}

// CommentsInRange lists records created within [start, end], oldest first.
func (s *CommentStore) CommentsInRange(ctx context.Context, start, end time.Time) ([]dojo.CommentRecord, error) {
	query := fmt.Sprintf(`
SELECT id, created_utc, author, submission
FROM %s
WHERE created_utc BETWEEN $1 AND $2
ORDER BY created_utc, id`, s.table)

	rows, err := s.pool.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []dojo.CommentRecord
	for rows.Next() {
		var rec dojo.CommentRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedUTC, &rec.Author, &rec.Submission); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		rec.CreatedUTC = rec.CreatedUTC.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

// DeleteComment removes the record with the given id. Missing rows are not
// an error.
func (s *CommentStore) DeleteComment(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return nil
}

// DeleteOlderThan removes records created strictly before cutoff.
func (s *CommentStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_utc < $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old comments: %w", err)
	}
	return tag.RowsAffected(), nil
}
