package pipeline

import (
	"bytes"
	"strings"
	"testing"
)

func TestStats_Merge(t *testing.T) {
	a := Stats{Files: 1, Sessions: 2, Messages: 10, SkippedShort: 1, Chunks: 3, ChunkMessages: 9, SkippedChunks: 1, Errors: 0}
	b := Stats{Files: 2, Sessions: 1, Messages: 4, Errors: 1}
	c := Stats{SkippedShort: 5, Chunks: 1, ChunkMessages: 3}

	if a.Merge(b) != b.Merge(a) {
		t.Error("merge is not commutative")
	}
	if a.Merge(b).Merge(c) != a.Merge(b.Merge(c)) {
		t.Error("merge is not associative")
	}
	if a.Merge(Stats{}) != a {
		t.Error("zero stats is not the identity")
	}

	got := a.Merge(b)
	if got.Files != 3 || got.Sessions != 3 || got.Messages != 14 || got.Errors != 1 {
		t.Errorf("unexpected merge result: %+v", got)
	}
}

func TestStats_AvgChunkMessages(t *testing.T) {
	if avg := (Stats{}).AvgChunkMessages(); avg != 0 {
		t.Errorf("expected 0 for no chunks, got %f", avg)
	}
	if avg := (Stats{Chunks: 4, ChunkMessages: 10}).AvgChunkMessages(); avg != 2.5 {
		t.Errorf("expected 2.5, got %f", avg)
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, "Parse", Stats{Files: 3, Sessions: 5, Messages: 40, SkippedShort: 2, Errors: 1})

	out := buf.String()
	for _, want := range []string{"=== Parse Summary ===", "Files processed: 3", "Sessions: 5", "Skipped (too short): 2", "Errors: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Chunks created") {
		t.Errorf("chunk lines printed without chunks:\n%s", out)
	}
}
