package chunk

import (
	"encoding/json"

	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

// Chunk is a contiguous run of one session's messages sized for embedding.
type Chunk struct {
	ChunkID      string
	SessionID    string
	SourceFile   string
	Channel      string
	TargetNick   string
	Network      string
	Participants []string
	StartTime    string // literal "HH:MM" of the first message
	EndTime      string // literal "HH:MM" of the last message
	Year         int    // 0 when the session start is unknown
	Decade       string
	Text         string
	MessageCount int
	ChunkIndex   int

	// Messages are the messages folded into Text. Not serialized.
	Messages []transcript.Message
}

type chunkRecord struct {
	ChunkID      string   `json:"chunk_id"`
	SessionID    string   `json:"session_id"`
	SourceFile   string   `json:"source_file"`
	Channel      *string  `json:"channel"`
	TargetNick   *string  `json:"target_nick"`
	Network      *string  `json:"network"`
	Participants []string `json:"participants"`
	StartTime    *string  `json:"start_time"`
	EndTime      *string  `json:"end_time"`
	Year         *int     `json:"year"`
	Decade       *string  `json:"decade"`
	Text         string   `json:"text"`
	MessageCount int      `json:"message_count"`
	ChunkIndex   int      `json:"chunk_index"`
}

// MarshalJSON writes the chunk record form with unset optional fields as null.
func (c Chunk) MarshalJSON() ([]byte, error) {
	rec := chunkRecord{
		ChunkID:      c.ChunkID,
		SessionID:    c.SessionID,
		SourceFile:   c.SourceFile,
		Channel:      optional(c.Channel),
		TargetNick:   optional(c.TargetNick),
		Network:      optional(c.Network),
		Participants: c.Participants,
		StartTime:    optional(c.StartTime),
		EndTime:      optional(c.EndTime),
		Decade:       optional(c.Decade),
		Text:         c.Text,
		MessageCount: c.MessageCount,
		ChunkIndex:   c.ChunkIndex,
	}
	if c.Year != 0 {
		y := c.Year
		rec.Year = &y
	}
	if rec.Participants == nil {
		rec.Participants = []string{}
	}
	return json.Marshal(rec)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
