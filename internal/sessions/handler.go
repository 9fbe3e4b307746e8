package sessions

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/models"
	"github.com/envo-lms/backend/pkg/response"
)

// Handler serves session read projections.
type Handler struct {
	store Store
}

// NewHandler creates a sessions handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// SessionView is a session plus its computed status.
type SessionView struct {
	models.Session
	Status models.SessionStatus `json:"status"`
}

// DetailView is the session detail projection: core fields, computed status
// and the participant list.
type DetailView struct {
	SessionView
	Participants []models.ParticipantInfo `json:"participants"`
}

// List handles GET /sessions: all sessions with computed status, grouped into
// upcoming and past relative to now. Live sessions appear under upcoming so
// a joinable session is never hidden in the history group.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list sessions")
		return
	}
	now := time.Now()
	upcoming := make([]SessionView, 0)
	past := make([]SessionView, 0)
	for _, s := range list {
		v := SessionView{Session: s, Status: StatusOf(&s, now)}
		if v.Status == models.StatusCompleted {
			past = append(past, v)
		} else {
			upcoming = append(upcoming, v)
		}
	}
	response.OK(c, gin.H{"upcoming": upcoming, "past": past})
}

// GetByID handles GET /sessions/:id: the detail projection.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	ctx := c.Request.Context()
	s, err := h.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "session not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load session")
		return
	}
	participants, err := h.store.ListParticipants(ctx, id)
	if err != nil {
		response.Internal(c, "failed to load participants")
		return
	}
	if participants == nil {
		participants = []models.ParticipantInfo{}
	}
	response.OK(c, DetailView{
		SessionView:  SessionView{Session: *s, Status: StatusOf(s, time.Now())},
		Participants: participants,
	})
}
