package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/models"
)

func chunkFor(sessionID uuid.UUID, id int64, text string) *models.TranscriptChunk {
	return &models.TranscriptChunk{ID: id, SessionID: &sessionID, Text: text, CreatedAt: time.Now()}
}

func receive(t *testing.T, sub *Subscription) *models.TranscriptChunk {
	t.Helper()
	select {
	case chunk, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return chunk
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for chunk")
		return nil
	}
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)
	defer sub.Close()

	hub.Publish(sessionID, chunkFor(sessionID, 1, "hello"))
	if got := receive(t, sub); got.Text != "hello" {
		t.Fatalf("received %q, want hello", got.Text)
	}
}

func TestHub_SessionsAreIsolated(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	sessionA := uuid.New()
	sessionB := uuid.New()
	subA := hub.Subscribe(sessionA)
	subB := hub.Subscribe(sessionB)
	defer subA.Close()
	defer subB.Close()

	hub.Publish(sessionA, chunkFor(sessionA, 1, "for A"))
	if got := receive(t, subA); got.Text != "for A" {
		t.Fatalf("A received %q", got.Text)
	}
	select {
	case chunk := <-subB.C():
		t.Fatalf("B received %q, want nothing", chunk.Text)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_AllSubscribersReceive(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	sessionID := uuid.New()
	subs := []*Subscription{hub.Subscribe(sessionID), hub.Subscribe(sessionID), hub.Subscribe(sessionID)}
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()

	hub.Publish(sessionID, chunkFor(sessionID, 1, "broadcast"))
	for i, s := range subs {
		if got := receive(t, s); got.Text != "broadcast" {
			t.Fatalf("subscriber %d received %q", i, got.Text)
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// nobody drains; publishes beyond the buffer must be dropped,
		// never block the ingest path
		for i := int64(1); i <= subscriptionBuffer+50; i++ {
			hub.Publish(sessionID, chunkFor(sessionID, i, "flood"))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if got := len(sub.ch); got != subscriptionBuffer {
		t.Fatalf("buffered %d chunks, want %d", got, subscriptionBuffer)
	}
}

func TestHub_CloseDeregisters(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)

	if n := hub.SubscriberCount(sessionID); n != 1 {
		t.Fatalf("subscriber count = %d, want 1", n)
	}
	sub.Close()
	sub.Close() // idempotent
	if n := hub.SubscriberCount(sessionID); n != 0 {
		t.Fatalf("subscriber count after close = %d, want 0", n)
	}
	if _, ok := <-sub.C(); ok {
		t.Fatal("channel must be closed after Close")
	}
}

// fakeBus routes published payloads straight back through subscription
// handlers, standing in for Redis pub/sub.
type fakeBus struct {
	mu       sync.Mutex
	handlers map[uuid.UUID]func(payload []byte)
	cancels  int
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[uuid.UUID]func(payload []byte))}
}

func (b *fakeBus) PublishChunk(sessionID uuid.UUID, payload []byte) error {
	b.mu.Lock()
	handler := b.handlers[sessionID]
	b.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
	return nil
}

func (b *fakeBus) SubscribeSession(sessionID uuid.UUID, handler func(payload []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[sessionID] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, sessionID)
		b.cancels++
	}, nil
}

func TestHub_RedisPathDeliversOnce(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(nil, bus, bus)
	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)
	defer sub.Close()

	hub.Publish(sessionID, chunkFor(sessionID, 7, "via redis"))
	got := receive(t, sub)
	if got.Text != "via redis" || got.ID != 7 {
		t.Fatalf("received %+v", got)
	}
	select {
	case chunk := <-sub.C():
		t.Fatalf("duplicate delivery: %q", chunk.Text)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_LastCloseCancelsRedisSubscription(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(nil, bus, bus)
	sessionID := uuid.New()

	first := hub.Subscribe(sessionID)
	second := hub.Subscribe(sessionID)
	first.Close()
	bus.mu.Lock()
	cancels := bus.cancels
	bus.mu.Unlock()
	if cancels != 0 {
		t.Fatal("redis subscription cancelled while subscribers remain")
	}
	second.Close()
	bus.mu.Lock()
	cancels = bus.cancels
	bus.mu.Unlock()
	if cancels != 1 {
		t.Fatalf("redis cancels = %d, want 1 after last close", cancels)
	}
}
