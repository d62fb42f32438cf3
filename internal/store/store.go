package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS irc_sessions (
    session_id    TEXT PRIMARY KEY,
    source_file   TEXT NOT NULL,
    channel       TEXT,
    target_nick   TEXT,
    network       TEXT,
    start_time    TIMESTAMP,
    end_time      TIMESTAMP,
    participants  TEXT[] NOT NULL DEFAULT '{}',
    messages      JSONB NOT NULL DEFAULT '[]',
    message_count INTEGER NOT NULL DEFAULT 0,
    ingested_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS irc_chunks (
    chunk_id      TEXT PRIMARY KEY,
    session_id    TEXT NOT NULL,
    chunk_index   INTEGER NOT NULL,
    source_file   TEXT NOT NULL,
    channel       TEXT,
    target_nick   TEXT,
    network       TEXT,
    participants  TEXT[] NOT NULL DEFAULT '{}',
    start_time    TEXT,
    end_time      TEXT,
    year          INTEGER,
    decade        TEXT,
    text          TEXT NOT NULL,
    message_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS irc_chunks_session_idx ON irc_chunks (session_id, chunk_index);
CREATE INDEX IF NOT EXISTS irc_chunks_year_idx ON irc_chunks (year);
`

// Store is the Postgres sink.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the session and chunk tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
