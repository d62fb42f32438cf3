package transcript

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionJSON_NullsAndCount(t *testing.T) {
	s := Session{
		SessionID:    "bob_0001",
		SourceFile:   "logs/bob.log",
		TargetNick:   "bob",
		Participants: []string{"bob"},
		Messages:     []Message{{Time: "10:00", Nick: "bob", Text: "hi"}},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"channel", "network", "start_time", "end_time"} {
		v, ok := raw[key]
		if !ok {
			t.Errorf("missing key %q", key)
		} else if v != nil {
			t.Errorf("%s = %v, want null", key, v)
		}
	}
	if raw["message_count"] != float64(1) {
		t.Errorf("message_count = %v", raw["message_count"])
	}
	if !strings.Contains(string(data), `"is_self":false`) {
		t.Errorf("expected is_self in %s", data)
	}
}

func TestSessionJSON_ReadBack(t *testing.T) {
	in := Session{
		SessionID:    "#chat_0001",
		SourceFile:   "#chat.log",
		Channel:      "#chat",
		StartTime:    time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC),
		Participants: []string{"alice"},
		Messages:     []Message{{Time: "18:30", Nick: "alice", Text: "hello"}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"start_time":"2003-12-09T18:27:34"`) {
		t.Errorf("unexpected start_time encoding: %s", data)
	}

	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.StartTime.Equal(in.StartTime) || !out.EndTime.IsZero() {
		t.Errorf("times = %v/%v", out.StartTime, out.EndTime)
	}
	if out.Channel != "#chat" || out.Network != "" {
		t.Errorf("origin = %q/%q", out.Channel, out.Network)
	}
}

func TestSessionJSON_TimestampForms(t *testing.T) {
	want := time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2003-12-09T18:27:34", want},
		{"2003-12-09 18:27:34", want},
		{"2003-12-09T18:27:34.250", want.Add(250 * time.Millisecond)},
		{"2003-12-09 18:27:34.5", want.Add(500 * time.Millisecond)},
		{"2003-12-09T18:27:34Z", want},
		{"2003-12-09", time.Date(2003, 12, 9, 0, 0, 0, 0, time.UTC)},
		{"2003-12-09T18:27", want.Truncate(time.Minute)},
	}
	for _, tt := range tests {
		var s Session
		data := `{"session_id":"x","start_time":"` + tt.in + `"}`
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Errorf("%q: unexpected error %v", tt.in, err)
			continue
		}
		if !s.StartTime.Equal(tt.want) {
			t.Errorf("%q: start = %v, want %v", tt.in, s.StartTime, tt.want)
		}
	}
}

func TestSessionJSON_UnreadableTimestampLeftUnset(t *testing.T) {
	var s Session
	err := json.Unmarshal([]byte(`{"session_id":"x","start_time":"yesterday","end_time":"12/09/2003"}`), &s)
	if err != nil {
		t.Fatalf("expected record to be accepted, got %v", err)
	}
	if !s.StartTime.IsZero() || !s.EndTime.IsZero() {
		t.Errorf("times = %v/%v, want unset", s.StartTime, s.EndTime)
	}
	if s.SessionID != "x" {
		t.Errorf("session_id = %q", s.SessionID)
	}
}
