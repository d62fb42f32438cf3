package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/store"
	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

// DefaultMinChunkMessages is the smallest chunk written by default.
const DefaultMinChunkMessages = 3

// ChunkWriter segments sessions and writes the chunks that meet the minimum
// size. It is not safe for concurrent use.
type ChunkWriter struct {
	Segmenter   chunk.Segmenter
	MinMessages int
	Sink        store.Sink

	out *RecordWriter
}

// NewChunkWriter writes chunk records to w. A nil sink discards.
func NewChunkWriter(w io.Writer, seg chunk.Segmenter, minMessages int, sink store.Sink) *ChunkWriter {
	if sink == nil {
		sink = store.Nop{}
	}
	return &ChunkWriter{Segmenter: seg, MinMessages: minMessages, Sink: sink, out: NewRecordWriter(w)}
}

// WriteSession chunks one session and returns the counts it contributed.
func (cw *ChunkWriter) WriteSession(ctx context.Context, s transcript.Session) (Stats, error) {
	var st Stats
	for c := range cw.Segmenter.Segment(s) {
		if c.MessageCount < cw.MinMessages {
			st.SkippedChunks++
			continue
		}
		if err := cw.out.Write(c); err != nil {
			return st, err
		}
		if err := cw.Sink.WriteChunk(ctx, c); err != nil {
			return st, fmt.Errorf("sink: %w", err)
		}
		st.Chunks++
		st.ChunkMessages += c.MessageCount
	}
	return st, nil
}

// Flush flushes buffered chunk records.
func (cw *ChunkWriter) Flush() error {
	return cw.out.Flush()
}

// ChunkSessions reads a session JSONL stream from r and writes its chunks
// through cw. A malformed input record stops the stage with a *RecordError.
func ChunkSessions(ctx context.Context, r io.Reader, cw *ChunkWriter) (Stats, error) {
	var total Stats
	for s, err := range ReadSessions(r) {
		if err != nil {
			_ = cw.Flush()
			return total, err
		}
		if err := ctx.Err(); err != nil {
			_ = cw.Flush()
			return total, err
		}
		st, err := cw.WriteSession(ctx, s)
		total = total.Merge(st)
		total.Sessions++
		if err != nil {
			_ = cw.Flush()
			return total, fmt.Errorf("session %s: %w", s.SessionID, err)
		}
	}
	if err := cw.Flush(); err != nil {
		return total, fmt.Errorf("flush chunks: %w", err)
	}
	return total, nil
}
