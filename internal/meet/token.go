// Package meet mints the short-lived signed credential a client exchanges
// with the conferencing backend to join one virtual room.
package meet

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/envo-lms/backend/config"
	"github.com/envo-lms/backend/internal/access"
	"github.com/envo-lms/backend/internal/auth"
	"github.com/envo-lms/backend/internal/models"
)

var (
	// ErrNotIssuable guards against issuing for an identity that was not
	// resolved as owner or participant. Reaching it is a programming error
	// in the caller, not a user-recoverable condition.
	ErrNotIssuable = errors.New("identity not authorized for session")
	// ErrInvalidMode means the session has no virtual room to scope a token to.
	ErrInvalidMode = errors.New("session is not an online session")
)

// UserClaim names the joining identity inside the token context.
type UserClaim struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ContextClaim carries identity and privilege into the conferencing backend.
type ContextClaim struct {
	User      UserClaim `json:"user"`
	Moderator bool      `json:"moderator"`
}

// Claims is the join-token claim set consumed by the conferencing backend:
// {iss, aud, sub, room, exp, iat, context: {user, moderator}}. Audience is a
// plain string field shadowing the registered claim: the backend compares aud
// byte-for-byte and jwt.ClaimStrings marshals a single audience as an array.
type Claims struct {
	Room     string       `json:"room"`
	Audience string       `json:"aud"`
	Context  ContextClaim `json:"context"`
	jwt.RegisteredClaims
}

// Issuer mints join tokens signed HMAC-SHA256 with the shared conferencing
// secret. Stateless: tokens cannot be revoked before expiry, which the fixed
// TTL bounds to at most one configured window.
type Issuer struct {
	cfg config.MeetConfig
	now func() time.Time
}

// NewIssuer creates a token issuer. Configuration is validated at startup,
// so a missing secret never surfaces here.
func NewIssuer(cfg config.MeetConfig) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// Issue mints a token scoping the identity to the session's room with the
// privilege of the given decision. roomOverride is honored only when the
// session is online; a session without any room fails with ErrInvalidMode.
// The TTL is fixed per issuance: a shorter session does not shorten the
// token, clients re-request on expiry or leave.
func (i *Issuer) Issue(s *models.Session, identity auth.Identity, decision access.Decision, roomOverride string) (string, error) {
	if !decision.Allowed {
		return "", ErrNotIssuable
	}
	room, err := resolveRoom(s, roomOverride)
	if err != nil {
		return "", err
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(time.Duration(i.cfg.TokenTTLSec) * time.Second)
	claims := Claims{
		Room:     room,
		Audience: i.cfg.Audience,
		Context: ContextClaim{
			User: UserClaim{
				ID:    identity.ID.String(),
				Name:  identity.Name,
				Email: identity.Email,
			},
			Moderator: decision.Role == access.RoleOwner,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   i.cfg.Domain,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.cfg.AppSecret))
	if err != nil {
		return "", fmt.Errorf("sign join token: %w", err)
	}
	return signed, nil
}

func resolveRoom(s *models.Session, override string) (string, error) {
	if s.Mode != models.SessionModeOnline {
		return "", ErrInvalidMode
	}
	if override != "" {
		return override, nil
	}
	if s.RoomReference == nil || *s.RoomReference == "" {
		return "", ErrInvalidMode
	}
	return *s.RoomReference, nil
}
