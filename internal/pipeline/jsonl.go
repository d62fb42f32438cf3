package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

// maxRecordSize bounds one JSONL line. Whole sessions are a single line.
const maxRecordSize = 64 * 1024 * 1024

// RecordWriter writes one JSON value per line.
type RecordWriter struct {
	bw  *bufio.Writer
	enc *json.Encoder
	n   int
}

// NewRecordWriter wraps w. Call Flush when done.
func NewRecordWriter(w io.Writer) *RecordWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &RecordWriter{bw: bw, enc: enc}
}

// Write encodes v followed by a newline.
func (rw *RecordWriter) Write(v any) error {
	if err := rw.enc.Encode(v); err != nil {
		return fmt.Errorf("encode record %d: %w", rw.n+1, err)
	}
	rw.n++
	return nil
}

// Count is the number of records written.
func (rw *RecordWriter) Count() int { return rw.n }

// Flush writes any buffered data to the underlying writer.
func (rw *RecordWriter) Flush() error {
	return rw.bw.Flush()
}

// RecordError reports a malformed input record and where it was found.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record on line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

var errMissingSessionID = errors.New("missing session_id")

// ReadSessions decodes a session JSONL stream. Blank lines are skipped. The
// sequence stops after the first error, which is a *RecordError for a bad
// record or the underlying read error.
func ReadSessions(r io.Reader) iter.Seq2[transcript.Session, error] {
	return func(yield func(transcript.Session, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

		line := 0
		for scanner.Scan() {
			line++
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}

			var s transcript.Session
			if err := json.Unmarshal(raw, &s); err != nil {
				yield(transcript.Session{}, &RecordError{Line: line, Err: err})
				return
			}
			if s.SessionID == "" {
				yield(transcript.Session{}, &RecordError{Line: line, Err: errMissingSessionID})
				return
			}
			if !yield(s, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(transcript.Session{}, fmt.Errorf("read sessions: %w", err))
		}
	}
}
