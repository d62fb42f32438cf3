package store

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

// Sink receives the records a run produces. Writes for one session arrive from
// a single goroutine, the session before its chunks.
type Sink interface {
	WriteSession(ctx context.Context, s transcript.Session) error
	WriteChunk(ctx context.Context, c chunk.Chunk) error
	Close() error
}

// Sink kinds accepted by Open.
const (
	KindNone     = "none"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// Options carries the connection settings for Open.
type Options struct {
	DatabaseURL string
	SQLitePath  string
}

// Open returns the sink of the given kind. An empty kind means none.
func Open(ctx context.Context, kind string, opts Options) (Sink, error) {
	switch kind {
	case "", KindNone:
		return Nop{}, nil
	case KindPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres sink: DATABASE_URL is required")
		}
		s, err := New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case KindSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite sink: path is required")
		}
		return OpenSQLite(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown sink %q (want none, postgres or sqlite)", kind)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) WriteSession(context.Context, transcript.Session) error { return nil }
func (Nop) WriteChunk(context.Context, chunk.Chunk) error          { return nil }
func (Nop) Close() error                                           { return nil }

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
