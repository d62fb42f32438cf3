package pipeline

import (
	"fmt"
	"io"
)

// Stats counts what a run produced. Values from independent workers combine
// with Merge in any order.
type Stats struct {
	Files         int `json:"files"`
	Sessions      int `json:"sessions"`
	Messages      int `json:"messages"`
	SkippedShort  int `json:"skipped_short"`
	Chunks        int `json:"chunks"`
	ChunkMessages int `json:"chunk_messages"`
	SkippedChunks int `json:"skipped_chunks"`
	Errors        int `json:"errors"`
}

// Merge returns the field-wise sum of s and o.
func (s Stats) Merge(o Stats) Stats {
	return Stats{
		Files:         s.Files + o.Files,
		Sessions:      s.Sessions + o.Sessions,
		Messages:      s.Messages + o.Messages,
		SkippedShort:  s.SkippedShort + o.SkippedShort,
		Chunks:        s.Chunks + o.Chunks,
		ChunkMessages: s.ChunkMessages + o.ChunkMessages,
		SkippedChunks: s.SkippedChunks + o.SkippedChunks,
		Errors:        s.Errors + o.Errors,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("files=%d sessions=%d messages=%d skipped_short=%d chunks=%d skipped_chunks=%d errors=%d",
		s.Files, s.Sessions, s.Messages, s.SkippedShort, s.Chunks, s.SkippedChunks, s.Errors)
}

// AvgChunkMessages is the mean number of messages per written chunk.
func (s Stats) AvgChunkMessages() float64 {
	if s.Chunks == 0 {
		return 0
	}
	return float64(s.ChunkMessages) / float64(s.Chunks)
}

// WriteSummary prints the end-of-run report.
func WriteSummary(w io.Writer, title string, s Stats) {
	fmt.Fprintf(w, "\n=== %s Summary ===\n", title)
	if s.Files > 0 {
		fmt.Fprintf(w, "Files processed: %d\n", s.Files)
	}
	fmt.Fprintf(w, "Sessions: %d\n", s.Sessions)
	if s.Messages > 0 || s.SkippedShort > 0 {
		fmt.Fprintf(w, "Messages: %d\n", s.Messages)
		fmt.Fprintf(w, "Skipped (too short): %d\n", s.SkippedShort)
	}
	if s.Chunks > 0 || s.SkippedChunks > 0 {
		fmt.Fprintf(w, "Chunks created: %d\n", s.Chunks)
		fmt.Fprintf(w, "Chunks skipped (too short): %d\n", s.SkippedChunks)
		fmt.Fprintf(w, "Messages in chunks: %d\n", s.ChunkMessages)
		fmt.Fprintf(w, "Avg messages per chunk: %.1f\n", s.AvgChunkMessages())
	}
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
}
