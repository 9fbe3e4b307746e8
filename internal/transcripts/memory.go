package transcripts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/models"
)

// MemoryStore is an in-memory Store for tests and database-less local runs.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	chunks []models.TranscriptChunk
}

// NewMemoryStore creates an empty in-memory transcript store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Insert appends a chunk, assigning id and timestamp in insertion order.
func (m *MemoryStore) Insert(_ context.Context, in InsertChunkInput) (*models.TranscriptChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunk := models.TranscriptChunk{
		ID:        m.nextID,
		SessionID: in.SessionID,
		Speaker:   in.Speaker,
		Text:      in.Text,
		IsFinal:   in.IsFinal,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.chunks = append(m.chunks, chunk)
	return &chunk, nil
}

// ListBySession returns a session's chunks in insertion order.
func (m *MemoryStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]models.TranscriptChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.TranscriptChunk
	for _, c := range m.chunks {
		if c.SessionID != nil && *c.SessionID == sessionID {
			list = append(list, c)
		}
	}
	return list, nil
}
