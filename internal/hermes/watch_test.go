package hermes

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

type fakeSubscriber struct {
	messages [][]byte
	subject  string
	err      error
}

func (f *fakeSubscriber) Subscribe(subject string, handler func(data []byte)) (*nats.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subject
	for _, m := range f.messages {
		handler(m)
	}
	return nil, nil
}

func TestDecodeBatch(t *testing.T) {
	b, err := DecodeBatch([]byte(`{"run_id":"r1","offset":100,"chunks":[{"chunk_id":"s_0001_chunk000","text":"a: hi"}]}`))
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}
	if b.RunID != "r1" || b.Offset != 100 || len(b.Chunks) != 1 {
		t.Errorf("unexpected batch: %+v", b)
	}
}

func TestDecodeBatch_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `nope`, nil},
		{"empty", `{"run_id":"r1","offset":0,"chunks":[]}`, errEmptyBatch},
		{"missing chunk id", `{"run_id":"r1","offset":0,"chunks":[{"text":"x"}]}`, errMissingChunkID},
		{"missing text", `{"run_id":"r1","offset":0,"chunks":[{"chunk_id":"c"}]}`, errMissingText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWatchBatches(t *testing.T) {
	sub := &fakeSubscriber{messages: [][]byte{
		[]byte(`{"run_id":"r1","offset":0,"chunks":[{"chunk_id":"c0","text":"a"}]}`),
		[]byte(`garbage`),
		[]byte(`{"run_id":"r1","offset":1,"chunks":[{"chunk_id":"c1","text":"b"}]}`),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []Batch
	var invalid []error
	err := WatchBatches(ctx, sub, func(b Batch) { got = append(got, b) }, func(err error) { invalid = append(invalid, err) })
	if err != nil {
		t.Fatalf("WatchBatches failed: %v", err)
	}
	if sub.subject != SubjectChunkBatch {
		t.Errorf("subscribed to %q", sub.subject)
	}
	if len(got) != 2 || got[0].Offset != 0 || got[1].Offset != 1 {
		t.Errorf("unexpected batches: %+v", got)
	}
	if len(invalid) != 1 {
		t.Errorf("expected 1 invalid message, got %d", len(invalid))
	}
}

func TestWatchBatches_SubscribeError(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no connection")}
	if err := WatchBatches(context.Background(), sub, func(Batch) {}, nil); err == nil {
		t.Fatal("expected subscribe error")
	}
}
