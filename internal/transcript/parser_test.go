package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestParseFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.EFnet.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"[18:30] [alice] hello",
		"[19:05] (bob) hi there",
		"Session Close: Tue Dec 09 19:06:00 2003",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]

	if !slices.Equal(s.Participants, []string{"alice", "bob"}) {
		t.Errorf("participants = %v", s.Participants)
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].IsSelf || !s.Messages[1].IsSelf {
		t.Errorf("is_self = %v/%v, want false/true", s.Messages[0].IsSelf, s.Messages[1].IsSelf)
	}
	if s.Messages[1].Text != "hi there" || s.Messages[1].Time != "19:05" {
		t.Errorf("msg[1] = %+v", s.Messages[1])
	}
	if s.SessionID != "#chat.EFnet_0001" {
		t.Errorf("session_id = %q", s.SessionID)
	}
	if s.Channel != "#chat" || s.Network != "EFnet" || s.TargetNick != "" {
		t.Errorf("origin = %q/%q/%q", s.Channel, s.Network, s.TargetNick)
	}
	wantStart := time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC)
	if !s.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", s.StartTime, wantStart)
	}
	wantEnd := time.Date(2003, 12, 9, 19, 6, 0, 0, time.UTC)
	if !s.EndTime.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", s.EndTime, wantEnd)
	}
}

func TestParseFile_NoiseAfterMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"[18:30] [alice] hello",
		"[18:31] ★ joins: carol (~c@host)",
		"[18:32] [bob] welcome",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(sessions[0].Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sessions[0].Messages))
	}
	for _, m := range sessions[0].Messages {
		if m.Nick == "carol" {
			t.Errorf("join line became a message: %+v", m)
		}
	}
}

func TestParseFile_EmptySessionsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"Session Close: Tue Dec 09 18:28:00 2003",
		"Session Start: Tue Dec 09 20:00:00 2003",
		"[20:01] [alice] second",
		"Session Close: Tue Dec 09 20:02:00 2003",
		"Session Start: Tue Dec 09 21:00:00 2003",
		"[21:01] [alice] ",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	// Counter advances for the discarded first session too.
	if sessions[0].SessionID != "#chat_0002" {
		t.Errorf("session_id = %q, want #chat_0002", sessions[0].SessionID)
	}
}

func TestParseFile_CloseDoesNotFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"[18:30] [alice] one",
		"Session Close: Tue Dec 09 18:40:00 2003",
		"[18:45] [alice] after close",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(sessions[0].Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(sessions[0].Messages))
	}
}

func TestParseFile_LinesBeforeFirstStartIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"[18:00] [alice] orphan",
		"Session Close: Tue Dec 09 18:10:00 2003",
	})

	if sessions := parseAll(t, path); len(sessions) != 0 {
		t.Errorf("expected 0 sessions, got %d", len(sessions))
	}
}

func TestParseFile_IdentUpdatesDMTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancer.DSMnet.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"Session Ident: realnick",
		"[18:30] [realnick] hey",
		"Session Start: Tue Dec 09 19:00:00 2003",
		"Session Ident: Status",
		"Session Ident: #somechan",
		"[19:01] [cancer] yo",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].TargetNick != "realnick" {
		t.Errorf("session 0 target = %q, want realnick", sessions[0].TargetNick)
	}
	if sessions[1].TargetNick != "cancer" {
		t.Errorf("session 1 target = %q, want cancer", sessions[1].TargetNick)
	}
	if sessions[0].Network != "DSMnet" || sessions[0].Channel != "" {
		t.Errorf("origin = %q/%q", sessions[0].Channel, sessions[0].Network)
	}
}

func TestParseFile_IdentIgnoredInChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"Session Ident: someone",
		"[18:30] [alice] hey",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].TargetNick != "" {
		t.Errorf("target = %q, want empty", sessions[0].TargetNick)
	}
}

func TestParseFile_UnparsedStartKeepsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: sometime last week",
		"[18:30] [alice] hey",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if !sessions[0].StartTime.IsZero() {
		t.Errorf("expected zero start time, got %v", sessions[0].StartTime)
	}
}

func TestParseFile_ControlCodesStripped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:27:34 2003",
		"\x0303[18:30] [\x02alice\x02] \x034,1hello\x0f",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 || len(sessions[0].Messages) != 1 {
		t.Fatalf("expected one session with one message, got %+v", sessions)
	}
	m := sessions[0].Messages[0]
	if m.Nick != "alice" || m.Text != "hello" {
		t.Errorf("message = %+v", m)
	}
}

func TestParseFile_ColouredMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"\x0314Session Start: Tue Dec 09 18:27:34 2003\x03",
		"[18:30] [alice] hello",
		"\x02Session Close: Tue Dec 09 19:06:00 2003\x02",
	})

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	wantStart := time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC)
	wantEnd := time.Date(2003, 12, 9, 19, 6, 0, 0, time.UTC)
	if !sessions[0].StartTime.Equal(wantStart) || !sessions[0].EndTime.Equal(wantEnd) {
		t.Errorf("times = %v/%v", sessions[0].StartTime, sessions[0].EndTime)
	}
}

func TestParseFile_Windows1252Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	data := "Session Start: Tue Dec 09 18:27:34 2003\r\n[18:30] [alice] caf\xe9\r\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	sessions := parseAll(t, path)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if got := sessions[0].Messages[0].Text; got != "café" {
		t.Errorf("text = %q, want café", got)
	}
}

func TestParseFile_NoEncodingSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	if err := os.WriteFile(path, []byte("Session Start: x\n[18:30] [a] caf\xe9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewParser(nil, []string{"utf-8"}, nil)
	seq, err := p.ParseFile(path)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if seq != nil {
		t.Error("expected no sequence on decode failure")
	}
}

func TestParseFile_NotFound(t *testing.T) {
	p := NewParser(nil, nil, nil)
	if _, err := p.ParseFile("/nonexistent/#chat.log"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestParseFile_StopEarly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "#chat.log")
	writeLines(t, path, []string{
		"Session Start: Tue Dec 09 18:00:00 2003",
		"[18:30] [alice] one",
		"Session Start: Tue Dec 09 19:00:00 2003",
		"[19:30] [alice] two",
		"Session Start: Tue Dec 09 20:00:00 2003",
		"[20:30] [alice] three",
	})

	p := NewParser(nil, nil, nil)
	seq, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2 sessions, got %d", n)
	}
}

func TestOriginFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Origin
	}{
		{"logs/#Dewland.EFnet.log", Origin{Channel: "#Dewland", Network: "EFnet"}},
		{"cancer.DSMnet.log", Origin{TargetNick: "cancer", Network: "DSMnet"}},
		{"#1009689464.log", Origin{Channel: "#1009689464"}},
		{"@ops.Undernet.log", Origin{Channel: "@ops", Network: "Undernet"}},
		{"bob.log", Origin{TargetNick: "bob"}},
		{"bob.2003.log", Origin{TargetNick: "bob.2003"}},
	}
	for _, tt := range tests {
		if got := OriginFromPath(tt.path); got != tt.want {
			t.Errorf("OriginFromPath(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Tue Dec 09 18:27:34 2003", time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC)},
		{"Tue Dec 09 18:27:34 03", time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC)},
		{"Tue Dec  9 18:27:34 2003", time.Date(2003, 12, 9, 18, 27, 34, 0, time.UTC)},
		{" Fri Jan 02 00:00:01 1998 ", time.Date(1998, 1, 2, 0, 0, 1, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if !ok {
			t.Errorf("ParseTimestamp(%q) failed", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, ok := ParseTimestamp("not a date"); ok {
		t.Error("expected failure for garbage input")
	}
}

func parseAll(t *testing.T, path string) []Session {
	t.Helper()
	p := NewParser(nil, nil, nil)
	seq, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	var out []Session
	for s := range seq {
		out = append(out, s)
	}
	return out
}

func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, line := range lines {
		f.WriteString(line + "\n")
	}
}
