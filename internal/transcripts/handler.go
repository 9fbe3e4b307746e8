package transcripts

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/envo-lms/backend/internal/models"
	"github.com/envo-lms/backend/pkg/response"
)

// Handler serves transcript ingest and backlog reads.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a transcript handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

type ingestRequest struct {
	SessionID *uuid.UUID `json:"session_id"`
	Speaker   *string    `json:"speaker"`
	ChunkText string     `json:"chunk_text"`
	IsFinal   bool       `json:"is_final"`
}

// Ingest handles POST /transcripts: persists one chunk and fans it out to
// the session's subscribers. 400 when chunk_text is missing.
func (h *Handler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	chunk, err := h.svc.Ingest(c.Request.Context(), IngestInput{
		SessionID: req.SessionID,
		Speaker:   req.Speaker,
		Text:      req.ChunkText,
		IsFinal:   req.IsFinal,
	})
	if errors.Is(err, ErrEmptyText) {
		response.BadRequest(c, "missing chunk_text")
		return
	}
	if err != nil {
		h.logger.Error("transcript ingest failed", zap.Error(err))
		response.Internal(c, "failed to store transcript chunk")
		return
	}
	response.Created(c, chunk)
}

// Backlog handles GET /sessions/:id/transcripts: the full ordered history of
// a session's chunks, oldest first.
func (h *Handler) Backlog(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	chunks, err := h.svc.Backlog(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("backlog read failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to load transcript")
		return
	}
	if chunks == nil {
		chunks = []models.TranscriptChunk{}
	}
	response.OK(c, gin.H{"chunks": chunks})
}
