package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/models"
)

// ErrNotFound is returned when a referenced session does not exist.
var ErrNotFound = errors.New("session not found")

// Store is a read-only view over session and participant records. The
// scheduling side of the platform owns the data; everything in this service
// goes through this interface so tests can swap in MemoryStore.
type Store interface {
	// GetByID returns the session or ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// GetParticipant returns the participant row for (session, identity),
	// or (nil, nil) when no such row exists.
	GetParticipant(ctx context.Context, sessionID, identityID uuid.UUID) (*models.Participant, error)
	// ListParticipants returns all participants of a session with their
	// profile display names.
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.ParticipantInfo, error)
	// List returns all sessions ordered by scheduled start, ascending.
	List(ctx context.Context) ([]models.Session, error)
}
