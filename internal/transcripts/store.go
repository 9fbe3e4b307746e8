package transcripts

import (
	"context"

	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/models"
)

// InsertChunkInput is the data for one new transcript chunk. SessionID and
// Speaker are optional on the wire and stay nullable in storage.
type InsertChunkInput struct {
	SessionID *uuid.UUID
	Speaker   *string
	Text      string
	IsFinal   bool
}

// Store persists transcript chunks. Rows are append-only: the id and
// timestamp are assigned on insert and never change afterwards.
type Store interface {
	Insert(ctx context.Context, in InsertChunkInput) (*models.TranscriptChunk, error)
	// ListBySession returns all chunks of a session, oldest first
	// (created_at, then insertion order on ties).
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.TranscriptChunk, error)
}

// Publisher fans an accepted chunk out to the subscribers of its session.
// Implementations must not block the ingest path on slow subscribers.
type Publisher interface {
	Publish(sessionID uuid.UUID, chunk *models.TranscriptChunk)
}
