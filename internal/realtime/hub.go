// Package realtime fans ingested transcript chunks out to the live
// subscribers of each session.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/envo-lms/backend/internal/models"
)

// subscriptionBuffer bounds the per-subscriber queue. A subscriber that falls
// this far behind starts losing chunks; it catches up via backlog replay.
const subscriptionBuffer = 256

// RedisPublisher publishes a chunk for cross-instance broadcast.
type RedisPublisher interface {
	PublishChunk(sessionID uuid.UUID, payload []byte) error
}

// RedisSubscriber subscribes to a session's channel and invokes handler for
// each incoming chunk payload.
type RedisSubscriber interface {
	SubscribeSession(sessionID uuid.UUID, handler func(payload []byte)) (cancel func(), err error)
}

// Subscription is one observer of a session's transcript stream.
type Subscription struct {
	id        string
	sessionID uuid.UUID
	ch        chan *models.TranscriptChunk
	hub       *Hub
	closeOnce sync.Once
}

// C is the stream of chunks. Closed by Close.
func (s *Subscription) C() <-chan *models.TranscriptChunk { return s.ch }

// Close deregisters the subscription. Safe to call more than once; no
// in-flight ingest is affected.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { s.hub.unsubscribe(s) })
}

// Hub maintains session_id -> set of subscriptions and broadcasts chunks.
// With Redis configured, publishing goes through Redis pub/sub so every
// instance (including this one) delivers via its subscription callback,
// keeping delivery single-path; without Redis, fan-out is local only.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]*Subscription
	cancels  map[uuid.UUID]func() // Redis subscription per session
	logger   *zap.Logger
	redisPub RedisPublisher
	redisSub RedisSubscriber
}

// NewHub creates a transcript fan-out hub. redisPub/redisSub may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[uuid.UUID]map[string]*Subscription),
		cancels:  make(map[uuid.UUID]func()),
		logger:   logger,
		redisPub: redisPub,
		redisSub: redisSub,
	}
}

// Subscribe registers an observer for a session. The first subscriber of a
// session starts the Redis subscription for it.
func (h *Hub) Subscribe(sessionID uuid.UUID) *Subscription {
	sub := &Subscription{
		id:        uuid.New().String(),
		sessionID: sessionID,
		ch:        make(chan *models.TranscriptChunk, subscriptionBuffer),
		hub:       h,
	}
	h.mu.Lock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]*Subscription)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeSession(sessionID, func(payload []byte) {
				var chunk models.TranscriptChunk
				if err := json.Unmarshal(payload, &chunk); err != nil {
					return
				}
				h.broadcast(sessionID, &chunk)
			})
			if err == nil {
				h.cancels[sessionID] = cancel
			} else {
				h.logger.Warn("redis subscribe failed, local fan-out only",
					zap.Error(err), zap.String("session_id", sessionID.String()))
			}
		}
	}
	h.sessions[sessionID][sub.id] = sub
	h.mu.Unlock()
	h.logger.Debug("subscriber joined", zap.String("session_id", sessionID.String()))
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if m, ok := h.sessions[sub.sessionID]; ok {
		delete(m, sub.id)
		if len(m) == 0 {
			delete(h.sessions, sub.sessionID)
			if cancel, ok := h.cancels[sub.sessionID]; ok {
				cancel()
				delete(h.cancels, sub.sessionID)
			}
		}
	}
	// must stay under the write lock: broadcast sends hold the read lock
	close(sub.ch)
	h.mu.Unlock()
	h.logger.Debug("subscriber left", zap.String("session_id", sub.sessionID.String()))
}

// Publish implements transcripts.Publisher. With Redis configured the chunk
// goes to Redis only and comes back through the subscription callback, so
// local clients are not delivered twice across instances.
func (h *Hub) Publish(sessionID uuid.UUID, chunk *models.TranscriptChunk) {
	if h.redisPub != nil {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		if err := h.redisPub.PublishChunk(sessionID, payload); err == nil {
			return
		}
		h.logger.Warn("redis publish failed, falling back to local broadcast",
			zap.String("session_id", sessionID.String()))
	}
	h.broadcast(sessionID, chunk)
}

// broadcast delivers to local subscribers with a non-blocking send: a full
// buffer drops the chunk for that subscriber instead of stalling ingest.
func (h *Hub) broadcast(sessionID uuid.UUID, chunk *models.TranscriptChunk) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions[sessionID] {
		select {
		case s.ch <- chunk:
		default:
			// subscriber too slow; it re-fetches backlog to catch up
		}
	}
}

// SubscriberCount returns the number of local subscribers of a session.
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
