package transcript

import (
	"encoding/json"
	"time"
)

// isoLayout is the timestamp form written to session records.
const isoLayout = "2006-01-02T15:04:05"

// Message is a single chat line attributed to a nick.
type Message struct {
	Time   string `json:"time"` // "HH:MM" as written in the log
	Nick   string `json:"nick"`
	Text   string `json:"text"`
	IsSelf bool   `json:"is_self"` // (nick) form: written by the log owner
}

// Session is one conversation window bounded by Session Start/Close markers.
// StartTime and EndTime are zero when the marker could not be parsed.
type Session struct {
	SessionID    string
	SourceFile   string
	Channel      string
	TargetNick   string // set for one-to-one conversations only
	Network      string
	StartTime    time.Time
	EndTime      time.Time
	Participants []string
	Messages     []Message
}

type sessionRecord struct {
	SessionID    string    `json:"session_id"`
	SourceFile   string    `json:"source_file"`
	Channel      *string   `json:"channel"`
	TargetNick   *string   `json:"target_nick"`
	Network      *string   `json:"network"`
	StartTime    *string   `json:"start_time"`
	EndTime      *string   `json:"end_time"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"message_count"`
}

// MarshalJSON writes the session record form: unset optional fields become null
// and message_count is derived from the message list.
func (s Session) MarshalJSON() ([]byte, error) {
	rec := sessionRecord{
		SessionID:    s.SessionID,
		SourceFile:   s.SourceFile,
		Channel:      optional(s.Channel),
		TargetNick:   optional(s.TargetNick),
		Network:      optional(s.Network),
		StartTime:    formatTime(s.StartTime),
		EndTime:      formatTime(s.EndTime),
		Participants: s.Participants,
		Messages:     s.Messages,
		MessageCount: len(s.Messages),
	}
	if rec.Participants == nil {
		rec.Participants = []string{}
	}
	if rec.Messages == nil {
		rec.Messages = []Message{}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads a session record. A start or end time in none of the
// accepted layouts is left unset rather than rejecting the record.
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*s = Session{
		SessionID:    rec.SessionID,
		SourceFile:   rec.SourceFile,
		Channel:      deref(rec.Channel),
		TargetNick:   deref(rec.TargetNick),
		Network:      deref(rec.Network),
		StartTime:    parseRecordTime(rec.StartTime),
		EndTime:      parseRecordTime(rec.EndTime),
		Participants: rec.Participants,
		Messages:     rec.Messages,
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	v := t.Format(isoLayout)
	return &v
}

// recordLayouts are the timestamp forms accepted when reading records back.
// Fractional seconds are accepted after any seconds field.
var recordLayouts = []string{
	isoLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseRecordTime(v *string) time.Time {
	if v == nil || *v == "" {
		return time.Time{}
	}
	for _, layout := range recordLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return t
		}
	}
	return time.Time{}
}
