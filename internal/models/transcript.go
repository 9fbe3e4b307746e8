package models

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptChunk is one increment of live speech-to-text output. Append-only:
// rows are never updated or deleted. The id is server-assigned and, together
// with created_at, defines the replay order within a session.
type TranscriptChunk struct {
	ID        int64      `json:"id"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Speaker   *string    `json:"speaker,omitempty"`
	Text      string     `json:"chunk_text"`
	IsFinal   bool       `json:"is_final"`
	CreatedAt time.Time  `json:"created_at"`
}
