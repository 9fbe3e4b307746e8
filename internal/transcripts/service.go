package transcripts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/envo-lms/backend/internal/models"
)

// ErrEmptyText rejects ingest calls without transcript text.
var ErrEmptyText = errors.New("chunk_text is required")

// Service accepts transcript chunks, persists them and fans them out.
// Ingestion does not gate on session status: a session that overruns its
// scheduled end still accepts chunks.
type Service struct {
	store  Store
	pub    Publisher
	logger *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// IngestInput is one incoming speech-to-text increment.
type IngestInput struct {
	SessionID *uuid.UUID
	Speaker   *string
	Text      string
	IsFinal   bool
}

// NewService creates a transcript service.
func NewService(store Store, pub Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		pub:    pub,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// Ingest validates, persists and publishes one chunk. The call returns once
// the chunk is durably stored; delivery to subscribers is best-effort and
// never blocks the producer. Persist and publish run under a per-session
// lock so the fan-out order matches the acceptance order; different sessions
// never contend.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*models.TranscriptChunk, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}

	if in.SessionID != nil {
		lock := s.sessionLock(*in.SessionID)
		lock.Lock()
		defer lock.Unlock()
	}

	chunk, err := s.store.Insert(ctx, InsertChunkInput(in))
	if err != nil {
		return nil, fmt.Errorf("insert transcript chunk: %w", err)
	}
	if in.SessionID != nil && s.pub != nil {
		s.pub.Publish(*in.SessionID, chunk)
	}
	s.logger.Debug("transcript chunk ingested",
		zap.Int64("chunk_id", chunk.ID),
		zap.Bool("is_final", chunk.IsFinal))
	return chunk, nil
}

// Backlog returns all persisted chunks of a session, oldest first.
func (s *Service) Backlog(ctx context.Context, sessionID uuid.UUID) ([]models.TranscriptChunk, error) {
	return s.store.ListBySession(ctx, sessionID)
}

func (s *Service) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}
