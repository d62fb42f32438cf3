package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

const sqliteSchema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    session_id    TEXT PRIMARY KEY,
    source_file   TEXT NOT NULL,
    channel       TEXT,
    target_nick   TEXT,
    network       TEXT,
    start_time    TEXT,
    end_time      TEXT,
    participants  TEXT NOT NULL DEFAULT '[]',
    messages      TEXT NOT NULL DEFAULT '[]',
    message_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS chunks (
    chunk_id      TEXT PRIMARY KEY,
    session_id    TEXT NOT NULL,
    chunk_index   INTEGER NOT NULL,
    source_file   TEXT NOT NULL,
    channel       TEXT,
    target_nick   TEXT,
    network       TEXT,
    participants  TEXT NOT NULL DEFAULT '[]',
    start_time    TEXT,
    end_time      TEXT,
    year          INTEGER,
    decade        TEXT,
    text          TEXT NOT NULL,
    message_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS chunks_session_idx ON chunks (session_id, chunk_index);
`

// SQLite is the single-file sink.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (d *SQLite) Close() error {
	return d.db.Close()
}

func (d *SQLite) WriteSession(ctx context.Context, s transcript.Session) error {
	participants, err := jsonList(s.Participants)
	if err != nil {
		return err
	}
	messages, err := json.Marshal(s.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	if s.Messages == nil {
		messages = []byte("[]")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, source_file, channel, target_nick, network,
			start_time, end_time, participants, messages, message_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			source_file = excluded.source_file,
			channel = excluded.channel,
			target_nick = excluded.target_nick,
			network = excluded.network,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			participants = excluded.participants,
			messages = excluded.messages,
			message_count = excluded.message_count`,
		s.SessionID, s.SourceFile, nullStr(s.Channel), nullStr(s.TargetNick), nullStr(s.Network),
		isoTime(s.StartTime), isoTime(s.EndTime), participants, string(messages), len(s.Messages),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE session_id = ?", s.SessionID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return tx.Commit()
}

func (d *SQLite) WriteChunk(ctx context.Context, c chunk.Chunk) error {
	participants, err := jsonList(c.Participants)
	if err != nil {
		return err
	}
	var year any
	if c.Year != 0 {
		year = c.Year
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chunks (chunk_id, session_id, chunk_index, source_file, channel,
			target_nick, network, participants, start_time, end_time, year, decade, text, message_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ChunkID, c.SessionID, c.ChunkIndex, c.SourceFile, nullStr(c.Channel),
		nullStr(c.TargetNick), nullStr(c.Network), participants, nullStr(c.StartTime), nullStr(c.EndTime),
		year, nullStr(c.Decade), c.Text, c.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
	}
	return nil
}

func (d *SQLite) SessionCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

func (d *SQLite) ChunkCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// ChunkTexts returns the texts of a session's chunks in index order.
func (d *SQLite) ChunkTexts(sessionID string) ([]string, error) {
	rows, err := d.db.Query("SELECT text FROM chunks WHERE session_id = ? ORDER BY chunk_index", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

func jsonList(v []string) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}

func isoTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02T15:04:05")
}
