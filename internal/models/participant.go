package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole is the role stored on a participant row.
type ParticipantRole string

const (
	ParticipantRoleOwner       ParticipantRole = "owner"
	ParticipantRoleParticipant ParticipantRole = "participant"
)

// Participant links an identity to a session. Unique per (session, identity);
// read-only from this service's perspective.
type Participant struct {
	SessionID  uuid.UUID       `json:"session_id"`
	IdentityID uuid.UUID       `json:"identity_id"`
	Role       ParticipantRole `json:"role"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ParticipantInfo is one entry of the session detail projection: the
// participant row joined with the profile display name.
type ParticipantInfo struct {
	ID   uuid.UUID       `json:"id"`
	Name string          `json:"name"`
	Role ParticipantRole `json:"role"`
}
