package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishLikeEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "photo_liked"}

	err := p.PublishLikeEvent(context.Background(), LikeEvent{PhotoID: 4, UserID: 9, Liked: true, Likes: 3})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "photo-4" || msg.Topic != "photo_liked" {
		t.Fatalf("unexpected key/topic %q/%q", msg.Key, msg.Topic)
	}

	var decoded LikeEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Likes != 3 || !decoded.Liked {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestPublishLikeEventError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t"}
	if err := p.PublishLikeEvent(context.Background(), LikeEvent{PhotoID: 1}); err == nil {
		t.Fatalf("expected error")
	}
}

type fakeReader struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumeLikeEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good, _ := json.Marshal(LikeEvent{PhotoID: 2, Liked: true})
	r := &fakeReader{
		msgs: []kafka.Message{
			{Value: []byte("not json")},
			{Value: good},
		},
		cancel: cancel,
	}

	var handled []int64
	ConsumeLikeEvents(ctx, r, func(_ context.Context, e *LikeEvent) error {
		handled = append(handled, e.PhotoID)
		return nil
	})

	if len(handled) != 1 || handled[0] != 2 {
		t.Fatalf("expected only the valid event to be handled, got %v", handled)
	}
	if !r.closed {
		t.Fatalf("reader should be closed on exit")
	}
}
