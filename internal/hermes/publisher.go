package hermes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// SubjectChunkBatch is the NATS subject chunk batches are published on.
const SubjectChunkBatch = "ircarchive.chunks.batch"

const DefaultBatchSize = 100

const maxChunkLine = 16 * 1024 * 1024

// Batch is one published message: consecutive chunk records starting at Offset,
// the zero-based line of the first record in the chunk file.
type Batch struct {
	RunID  string            `json:"run_id"`
	Offset int               `json:"offset"`
	Chunks []json.RawMessage `json:"chunks"`
}

// Publisher is the part of Client the batch publisher needs.
type Publisher interface {
	Publish(subject string, data any) error
	Flush() error
}

// BatchPublisher hands chunk records to the bus in fixed-size batches.
type BatchPublisher struct {
	pub       Publisher
	subject   string
	batchSize int
	runID     string
	logger    *slog.Logger
}

func NewBatchPublisher(pub Publisher, runID string, batchSize int, logger *slog.Logger) *BatchPublisher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchPublisher{
		pub:       pub,
		subject:   SubjectChunkBatch,
		batchSize: batchSize,
		runID:     runID,
		logger:    logger,
	}
}

// LineError reports an invalid chunk record.
type LineError struct {
	Line int // 1-based
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("chunk record on line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

var (
	errMissingChunkID = errors.New("missing chunk_id")
	errMissingText    = errors.New("missing text")
)

// PublishFile publishes the records of the chunk file at path, skipping the
// first fromLine lines. After each batch reaches the server, onCommit receives
// the line offset to resume from; a nil onCommit is allowed. It returns the
// number of records published.
func (p *BatchPublisher) PublishFile(ctx context.Context, path string, fromLine int, onCommit func(next int) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open chunks: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChunkLine)

	published := 0
	line := 0
	batch := Batch{RunID: p.runID, Offset: fromLine}

	send := func(next int) error {
		if len(batch.Chunks) > 0 {
			if err := p.pub.Publish(p.subject, batch); err != nil {
				return fmt.Errorf("publish batch at offset %d: %w", batch.Offset, err)
			}
			if err := p.pub.Flush(); err != nil {
				return err
			}
			published += len(batch.Chunks)
			p.logger.Info("batch published", "offset", batch.Offset, "chunks", len(batch.Chunks), "next", next)
		}
		if onCommit != nil {
			if err := onCommit(next); err != nil {
				return fmt.Errorf("commit offset %d: %w", next, err)
			}
		}
		batch = Batch{RunID: p.runID, Offset: next}
		return nil
	}

	for scanner.Scan() {
		line++
		if line <= fromLine {
			continue
		}
		if err := ctx.Err(); err != nil {
			return published, err
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			if len(batch.Chunks) == 0 {
				batch.Offset = line
			}
			continue
		}
		if err := validateChunk(raw); err != nil {
			return published, &LineError{Line: line, Err: err}
		}
		batch.Chunks = append(batch.Chunks, json.RawMessage(bytes.Clone(raw)))

		if len(batch.Chunks) >= p.batchSize {
			if err := send(line); err != nil {
				return published, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return published, fmt.Errorf("read chunks: %w", err)
	}
	if len(batch.Chunks) > 0 {
		if err := send(line); err != nil {
			return published, err
		}
	}
	return published, nil
}

func validateChunk(raw []byte) error {
	var rec struct {
		ChunkID string  `json:"chunk_id"`
		Text    *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	if rec.ChunkID == "" {
		return errMissingChunkID
	}
	if rec.Text == nil {
		return errMissingText
	}
	return nil
}
