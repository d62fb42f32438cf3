package chunk

import (
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

const (
	DefaultMaxMessages = 20
	DefaultMaxChars    = 8000 // roughly 2000 tokens
	DefaultMaxGap      = 30 * time.Minute
)

// Segmenter splits sessions into chunks bounded by message count, character
// budget and time gap. Zero fields take the defaults.
type Segmenter struct {
	MaxMessages int
	MaxChars    int
	MaxGap      time.Duration
}

// Segment returns the chunks of s in order. A session without messages yields nothing.
// A single message longer than MaxChars still gets a chunk of its own.
func (sg Segmenter) Segment(s transcript.Session) iter.Seq[Chunk] {
	maxMessages := sg.MaxMessages
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	maxChars := sg.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	maxGap := sg.MaxGap
	if maxGap <= 0 {
		maxGap = DefaultMaxGap
	}

	year, decade := yearAndDecade(s.StartTime)
	hasDate := !s.StartTime.IsZero()

	return func(yield func(Chunk) bool) {
		var current []transcript.Message
		chars := 0
		chunkIdx := 0

		flush := func() bool {
			c := buildChunk(s, current, chunkIdx, year, decade)
			current = nil
			chars = 0
			chunkIdx++
			return yield(c)
		}

		for _, msg := range s.Messages {
			lineChars := utf8.RuneCountInString(formatLine(msg)) + 1 // trailing newline

			split := false
			// Break on time gap (only when both times and the session date are known).
			if len(current) > 0 && hasDate && gapExceeds(current[len(current)-1].Time, msg.Time, maxGap) {
				split = true
			}
			// Break on message count boundary.
			if len(current) >= maxMessages {
				split = true
			}
			// Break on character budget.
			if chars+lineChars > maxChars {
				split = true
			}

			if split && len(current) > 0 {
				if !flush() {
					return
				}
			}

			current = append(current, msg)
			chars += lineChars
		}

		// Flush remaining.
		if len(current) > 0 {
			flush()
		}
	}
}

// Collect is Segment gathered into a slice.
func (sg Segmenter) Collect(s transcript.Session) []Chunk {
	var out []Chunk
	for c := range sg.Segment(s) {
		out = append(out, c)
	}
	return out
}

func buildChunk(s transcript.Session, msgs []transcript.Message, idx, year int, decade string) Chunk {
	seen := make(map[string]struct{}, len(msgs))
	var participants []string
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		if _, ok := seen[m.Nick]; !ok {
			seen[m.Nick] = struct{}{}
			participants = append(participants, m.Nick)
		}
		lines[i] = formatLine(m)
	}
	sort.Strings(participants)

	c := Chunk{
		ChunkID:      fmt.Sprintf("%s_chunk%03d", s.SessionID, idx),
		SessionID:    s.SessionID,
		SourceFile:   s.SourceFile,
		Channel:      s.Channel,
		TargetNick:   s.TargetNick,
		Network:      s.Network,
		Participants: participants,
		StartTime:    msgs[0].Time,
		EndTime:      msgs[len(msgs)-1].Time,
		Year:         year,
		Decade:       decade,
		Text:         strings.Join(lines, "\n"),
		MessageCount: len(msgs),
		ChunkIndex:   idx,
		Messages:     make([]transcript.Message, len(msgs)),
	}
	copy(c.Messages, msgs)
	return c
}

func formatLine(m transcript.Message) string {
	return m.Nick + ": " + m.Text
}

func yearAndDecade(start time.Time) (int, string) {
	if start.IsZero() {
		return 0, ""
	}
	y := start.Year()
	return y, fmt.Sprintf("%ds", (y/10)*10)
}

// gapExceeds reports whether the time between two "HH:MM" stamps of the same
// session is over limit. A later stamp that reads earlier than the previous one
// is taken to be on the next day. Unparseable stamps never split.
func gapExceeds(prev, curr string, limit time.Duration) bool {
	p, ok := minuteOfDay(prev)
	if !ok {
		return false
	}
	c, ok := minuteOfDay(curr)
	if !ok {
		return false
	}
	if c < p {
		c += 24 * 60
	}
	return time.Duration(c-p)*time.Minute > limit
}

func minuteOfDay(s string) (int, bool) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
