package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is an authenticated platform user, as resolved from a bearer
// credential. The conferencing join token is minted from these fields.
type Identity struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Resolver authenticates a bearer credential and yields the identity behind
// it. Injected wherever requests must be attributed to a user, so the
// identity provider can be swapped without touching handlers.
type Resolver interface {
	Resolve(token string) (*Identity, error)
}

// Claims holds the platform bearer token claims.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}

// JWTService validates platform bearer tokens (HS256) and implements Resolver.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{secret: []byte(secret), expireHours: expireHours}
}

// Generate creates a new bearer token for the identity.
func (s *JWTService) Generate(id Identity) (string, error) {
	claims := Claims{
		UserID:   id.ID,
		Email:    id.Email,
		FullName: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Resolve parses and validates a bearer token, returning the identity.
func (s *JWTService) Resolve(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.UserID, Name: claims.FullName, Email: claims.Email}, nil
}
