package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

// WriteSession upserts a session and drops any chunks stored for an earlier
// version of it. Tables: irc_sessions, irc_chunks.
func (s *Store) WriteSession(ctx context.Context, sess transcript.Session) error {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	participants := sess.Participants
	if participants == nil {
		participants = []string{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO irc_sessions (session_id, source_file, channel, target_nick, network,
			start_time, end_time, participants, messages, message_count, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (session_id) DO UPDATE SET
			source_file = EXCLUDED.source_file,
			channel = EXCLUDED.channel,
			target_nick = EXCLUDED.target_nick,
			network = EXCLUDED.network,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			participants = EXCLUDED.participants,
			messages = EXCLUDED.messages,
			message_count = EXCLUDED.message_count,
			ingested_at = now()`,
		sess.SessionID, sess.SourceFile, nullStr(sess.Channel), nullStr(sess.TargetNick), nullStr(sess.Network),
		nullTime(sess.StartTime), nullTime(sess.EndTime), participants, string(messages), len(sess.Messages),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM irc_chunks WHERE session_id = $1`, sess.SessionID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// WriteChunk upserts one chunk by chunk_id.
func (s *Store) WriteChunk(ctx context.Context, c chunk.Chunk) error {
	participants := c.Participants
	if participants == nil {
		participants = []string{}
	}
	var year *int
	if c.Year != 0 {
		year = &c.Year
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO irc_chunks (chunk_id, session_id, chunk_index, source_file, channel, target_nick,
			network, participants, start_time, end_time, year, decade, text, message_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (chunk_id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			chunk_index = EXCLUDED.chunk_index,
			participants = EXCLUDED.participants,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			year = EXCLUDED.year,
			decade = EXCLUDED.decade,
			text = EXCLUDED.text,
			message_count = EXCLUDED.message_count`,
		c.ChunkID, c.SessionID, c.ChunkIndex, c.SourceFile, nullStr(c.Channel), nullStr(c.TargetNick),
		nullStr(c.Network), participants, nullStr(c.StartTime), nullStr(c.EndTime), year, nullStr(c.Decade),
		c.Text, c.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
