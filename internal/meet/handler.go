package meet

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/envo-lms/backend/internal/access"
	"github.com/envo-lms/backend/internal/middleware"
	"github.com/envo-lms/backend/internal/sessions"
	"github.com/envo-lms/backend/pkg/response"
)

// Handler handles join-token issuance.
type Handler struct {
	store      sessions.Store
	authorizer *access.Authorizer
	issuer     *Issuer
	logger     *zap.Logger
}

// NewHandler creates a join-token handler.
func NewHandler(store sessions.Store, authorizer *access.Authorizer, issuer *Issuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, authorizer: authorizer, issuer: issuer, logger: logger}
}

type joinTokenRequest struct {
	RoomOverride string `json:"room_override"`
}

// JoinToken handles POST /sessions/:id/join-token. The bearer identity must
// be the session owner or a participant; the response is {token} scoped to
// the session's room.
func (h *Handler) JoinToken(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	identity := middleware.IdentityFrom(c)

	var req joinTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}

	ctx := c.Request.Context()
	decision, err := h.authorizer.Authorize(ctx, sessionID, identity.ID)
	if errors.Is(err, sessions.ErrNotFound) {
		response.NotFound(c, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("authorize failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "authorization check failed")
		return
	}
	if !decision.Allowed {
		response.Forbidden(c, "not authorized for this session")
		return
	}

	s, err := h.store.GetByID(ctx, sessionID)
	if errors.Is(err, sessions.ErrNotFound) {
		response.NotFound(c, "session not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load session")
		return
	}

	token, err := h.issuer.Issue(s, identity, decision, req.RoomOverride)
	if errors.Is(err, ErrInvalidMode) {
		response.BadRequest(c, "session has no online room")
		return
	}
	if err != nil {
		h.logger.Error("join token issuance failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, gin.H{"token": token})
}
