//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_WriteSessionAndChunks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sess := testSession()
	sess.SessionID = "integration-" + uuid.New().String()[:8] + "_0001"
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM irc_chunks WHERE session_id = $1", sess.SessionID)
		s.pool.Exec(ctx, "DELETE FROM irc_sessions WHERE session_id = $1", sess.SessionID)
	})

	if err := s.WriteSession(ctx, sess); err != nil {
		t.Fatalf("WriteSession failed: %v", err)
	}
	for c := range (chunk.Segmenter{MaxMessages: 1}).Segment(sess) {
		if err := s.WriteChunk(ctx, c); err != nil {
			t.Fatalf("WriteChunk failed: %v", err)
		}
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT message_count FROM irc_sessions WHERE session_id = $1", sess.SessionID).Scan(&count); err != nil {
		t.Fatalf("query session: %v", err)
	}
	if count != 2 {
		t.Errorf("expected message_count 2, got %d", count)
	}

	var chunks int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM irc_chunks WHERE session_id = $1", sess.SessionID).Scan(&chunks); err != nil {
		t.Fatalf("query chunks: %v", err)
	}
	if chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", chunks)
	}

	// Re-writing the session drops its chunks.
	if err := s.WriteSession(ctx, sess); err != nil {
		t.Fatalf("second WriteSession failed: %v", err)
	}
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM irc_chunks WHERE session_id = $1", sess.SessionID).Scan(&chunks); err != nil {
		t.Fatalf("query chunks: %v", err)
	}
	if chunks != 0 {
		t.Errorf("expected 0 chunks after rewrite, got %d", chunks)
	}
}
