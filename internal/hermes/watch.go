package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

var errEmptyBatch = errors.New("batch has no chunks")

// Subscriber is the part of Client WatchBatches needs.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (*nats.Subscription, error)
}

// DecodeBatch parses a chunk batch message and checks every record in it.
func DecodeBatch(data []byte) (Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	if len(b.Chunks) == 0 {
		return Batch{}, errEmptyBatch
	}
	for i, raw := range b.Chunks {
		if err := validateChunk(raw); err != nil {
			return Batch{}, fmt.Errorf("batch at offset %d, chunk %d: %w", b.Offset, i, err)
		}
	}
	return b, nil
}

// WatchBatches calls fn for each valid chunk batch received until ctx is done.
// Invalid messages go to onInvalid, which may be nil.
func WatchBatches(ctx context.Context, sub Subscriber, fn func(Batch), onInvalid func(error)) error {
	s, err := sub.Subscribe(SubjectChunkBatch, func(data []byte) {
		b, err := DecodeBatch(data)
		if err != nil {
			if onInvalid != nil {
				onInvalid(err)
			}
			return
		}
		fn(b)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	if s != nil {
		_ = s.Unsubscribe()
	}
	return nil
}
