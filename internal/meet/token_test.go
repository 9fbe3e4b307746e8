package meet

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/envo-lms/backend/config"
	"github.com/envo-lms/backend/internal/access"
	"github.com/envo-lms/backend/internal/auth"
	"github.com/envo-lms/backend/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testMeetConfig() config.MeetConfig {
	return config.MeetConfig{
		AppSecret:   testSecret,
		Domain:      "meet.example.org",
		Issuer:      "envo-lms",
		Audience:    "jitsi",
		TokenTTLSec: 3600,
	}
}

func onlineSession(room string) *models.Session {
	return &models.Session{
		ID:             uuid.New(),
		Title:          "Algebra II",
		Kind:           models.SessionKindClass,
		Mode:           models.SessionModeOnline,
		ScheduledStart: time.Now(),
		ScheduledEnd:   time.Now().Add(time.Hour),
		RoomReference:  &room,
		OwnerID:        uuid.New(),
	}
}

func testIdentity() auth.Identity {
	return auth.Identity{ID: uuid.New(), Name: "Ada Lovelace", Email: "ada@example.org"}
}

func parseClaims(t *testing.T, token string, opts ...jwt.ParserOption) *Claims {
	t.Helper()
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(testSecret), nil
	}, opts...)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		t.Fatal("token did not validate")
	}
	return claims
}

func TestIssue_OwnerIsModerator(t *testing.T) {
	issuer := NewIssuer(testMeetConfig())
	identity := testIdentity()

	token, err := issuer.Issue(onlineSession("room-1"), identity, access.Decision{Allowed: true, Role: access.RoleOwner}, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims := parseClaims(t, token)
	if !claims.Context.Moderator {
		t.Error("owner token must carry moderator=true")
	}
	if claims.Context.User.ID != identity.ID.String() {
		t.Errorf("user id = %q, want %q", claims.Context.User.ID, identity.ID)
	}
	if claims.Context.User.Name != identity.Name || claims.Context.User.Email != identity.Email {
		t.Errorf("user claim mismatch: %+v", claims.Context.User)
	}
}

func TestIssue_ParticipantIsNotModerator(t *testing.T) {
	issuer := NewIssuer(testMeetConfig())

	token, err := issuer.Issue(onlineSession("room-1"), testIdentity(), access.Decision{Allowed: true, Role: access.RoleParticipant}, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if parseClaims(t, token).Context.Moderator {
		t.Error("participant token must carry moderator=false")
	}
}

func TestIssue_ClaimShape(t *testing.T) {
	cfg := testMeetConfig()
	issuer := NewIssuer(cfg)

	token, err := issuer.Issue(onlineSession("physics-lab"), testIdentity(), access.Decision{Allowed: true, Role: access.RoleParticipant}, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims := parseClaims(t, token)
	if claims.Issuer != cfg.Issuer {
		t.Errorf("iss = %q, want %q", claims.Issuer, cfg.Issuer)
	}
	if claims.Audience != cfg.Audience {
		t.Errorf("aud = %q, want %q", claims.Audience, cfg.Audience)
	}
	if claims.Subject != cfg.Domain {
		t.Errorf("sub = %q, want %q", claims.Subject, cfg.Domain)
	}
	if claims.Room != "physics-lab" {
		t.Errorf("room = %q, want physics-lab", claims.Room)
	}
}

// Parsing normalizes claim types, so the wire format is checked on the raw
// payload segment. The conferencing backend compares these claims as plain
// JSON strings; aud in particular must not come out as an array.
func TestIssue_WirePayloadShapes(t *testing.T) {
	cfg := testMeetConfig()
	issuer := NewIssuer(cfg)

	token, err := issuer.Issue(onlineSession("physics-lab"), testIdentity(), access.Decision{Allowed: true, Role: access.RoleOwner}, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for claim, want := range map[string]string{
		"iss":  cfg.Issuer,
		"aud":  cfg.Audience,
		"sub":  cfg.Domain,
		"room": "physics-lab",
	} {
		if got := string(raw[claim]); got != `"`+want+`"` {
			t.Errorf("%s = %s, want %q", claim, got, want)
		}
	}
	var ctxClaim struct {
		Moderator *bool `json:"moderator"`
	}
	if err := json.Unmarshal(raw["context"], &ctxClaim); err != nil {
		t.Fatalf("unmarshal context claim: %v", err)
	}
	if ctxClaim.Moderator == nil || !*ctxClaim.Moderator {
		t.Errorf("context.moderator = %v, want true", ctxClaim.Moderator)
	}
	for _, numeric := range []string{"exp", "iat"} {
		if got := string(raw[numeric]); got == "" || strings.ContainsAny(got, `"`) {
			t.Errorf("%s = %s, want a bare number", numeric, got)
		}
	}
}

func TestIssue_FixedTTL(t *testing.T) {
	cfg := testMeetConfig()
	issuer := NewIssuer(cfg)
	issuer.now = func() time.Time { return time.Date(2025, 3, 10, 10, 55, 0, 0, time.UTC) }

	// the session ends in five minutes; the token still gets the full TTL
	s := onlineSession("room-1")
	s.ScheduledEnd = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	token, err := issuer.Issue(s, testIdentity(), access.Decision{Allowed: true, Role: access.RoleOwner}, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims := parseClaims(t, token, jwt.WithTimeFunc(issuer.now))
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != time.Duration(cfg.TokenTTLSec)*time.Second {
		t.Fatalf("exp - iat = %v, want %ds", ttl, cfg.TokenTTLSec)
	}
}

func TestIssue_RoomOverride(t *testing.T) {
	issuer := NewIssuer(testMeetConfig())

	token, err := issuer.Issue(onlineSession("stored-room"), testIdentity(), access.Decision{Allowed: true, Role: access.RoleOwner}, "override-room")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := parseClaims(t, token).Room; got != "override-room" {
		t.Fatalf("room = %q, want override-room", got)
	}
}

func TestIssue_OfflineSessionRejected(t *testing.T) {
	issuer := NewIssuer(testMeetConfig())
	loc := "Room 204, Main Building"
	s := &models.Session{
		ID:       uuid.New(),
		Mode:     models.SessionModeOffline,
		Location: &loc,
		OwnerID:  uuid.New(),
	}

	// the override must not rescue an offline session either
	for _, override := range []string{"", "override-room"} {
		_, err := issuer.Issue(s, testIdentity(), access.Decision{Allowed: true, Role: access.RoleOwner}, override)
		if !errors.Is(err, ErrInvalidMode) {
			t.Fatalf("override %q: expected ErrInvalidMode, got %v", override, err)
		}
	}
}

func TestIssue_OnlineSessionWithoutRoom(t *testing.T) {
	issuer := NewIssuer(testMeetConfig())
	s := onlineSession("")
	s.RoomReference = nil

	_, err := issuer.Issue(s, testIdentity(), access.Decision{Allowed: true, Role: access.RoleOwner}, "")
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestIssue_RefusesUnauthorizedDecision(t *testing.T) {
	issuer := NewIssuer(testMeetConfig())

	_, err := issuer.Issue(onlineSession("room-1"), testIdentity(), access.Decision{Allowed: false}, "")
	if !errors.Is(err, ErrNotIssuable) {
		t.Fatalf("expected ErrNotIssuable, got %v", err)
	}
}
