// Package access decides whether an identity may join a session and with
// which role. Decisions are never cached: participant rows can change between
// calls, so every Authorize consults current store state.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/sessions"
)

// Role is the resolved privilege level of an allowed identity.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleParticipant Role = "participant"
)

// Decision is the outcome of an authorization check. Denied is an explicit
// value rather than an error so callers cannot mistake "not permitted" for a
// failed lookup.
type Decision struct {
	Allowed bool
	Role    Role
}

// Authorizer resolves join permissions against the session store.
type Authorizer struct {
	store sessions.Store
}

// NewAuthorizer creates an authorizer backed by the given store.
func NewAuthorizer(store sessions.Store) *Authorizer {
	return &Authorizer{store: store}
}

// Authorize decides membership and role for (session, identity).
// The owner check runs first and independently of the participant lookup, so
// removing the owner's participant row never locks the owner out.
// Returns sessions.ErrNotFound when the session does not exist.
func (a *Authorizer) Authorize(ctx context.Context, sessionID, identityID uuid.UUID) (Decision, error) {
	s, err := a.store.GetByID(ctx, sessionID)
	if err != nil {
		return Decision{}, err
	}
	if s.OwnerID == identityID {
		return Decision{Allowed: true, Role: RoleOwner}, nil
	}
	p, err := a.store.GetParticipant(ctx, sessionID, identityID)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup participant: %w", err)
	}
	if p == nil {
		return Decision{Allowed: false}, nil
	}
	return Decision{Allowed: true, Role: RoleParticipant}, nil
}
