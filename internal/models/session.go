package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionKind distinguishes scheduled classes from ad-hoc meetings.
type SessionKind string

const (
	SessionKindClass   SessionKind = "class"
	SessionKindMeeting SessionKind = "meeting"
)

// SessionMode says whether a session happens in a virtual room or on premises.
type SessionMode string

const (
	SessionModeOnline  SessionMode = "online"
	SessionModeOffline SessionMode = "offline"
)

// SessionStatus is derived from the schedule, never stored.
type SessionStatus string

const (
	StatusUpcoming  SessionStatus = "upcoming"
	StatusLive      SessionStatus = "live"
	StatusCompleted SessionStatus = "completed"
)

// Session is a scheduled class or meeting. Created and mutated by the
// scheduling side of the platform; this service only reads it.
// Invariant enforced by the schema: scheduled_end > scheduled_start.
type Session struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Kind           SessionKind `json:"kind"`
	Mode           SessionMode `json:"mode"`
	ScheduledStart time.Time   `json:"scheduled_start"`
	ScheduledEnd   time.Time   `json:"scheduled_end"`
	RoomReference  *string     `json:"room_reference,omitempty"`
	Location       *string     `json:"location,omitempty"`
	OwnerID        uuid.UUID   `json:"owner_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
