package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/envo-lms/backend/internal/auth"
	"github.com/envo-lms/backend/internal/models"
	"github.com/envo-lms/backend/internal/transcripts"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	backlogTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const eventTranscriptChunk = "transcript_chunk"

// client is a single WebSocket transcript subscriber.
type client struct {
	sessionID uuid.UUID
	conn      *websocket.Conn
	sub       *Subscription
	svc       *transcripts.Service
	replay    bool
	logger    *zap.Logger
}

// ServeWs handles GET /ws?session_id=&token=&replay=. The bearer token rides
// in the query because browser WebSocket clients cannot set headers. With
// replay=1 the persisted backlog streams first; live chunks already covered
// by the backlog are skipped so a subscriber never sees duplicates or
// reordering across the replay boundary.
func ServeWs(hub *Hub, svc *transcripts.Service, resolver auth.Resolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionIDStr := c.Query("session_id")
		token := c.Query("token")
		if sessionIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and token required"})
			return
		}
		sessionID, err := uuid.Parse(sessionIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
			return
		}
		if _, err := resolver.Resolve(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		cl := &client{
			sessionID: sessionID,
			conn:      conn,
			sub:       hub.Subscribe(sessionID),
			svc:       svc,
			replay:    c.Query("replay") == "1",
			logger:    logger,
		}
		go cl.writePump()
		cl.readPump()
	}
}

func (c *client) readPump() {
	defer func() {
		c.sub.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// subscribers only receive; inbound frames are drained for control flow
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	// Subscription is already registered, so chunks ingested while the
	// backlog is read buffer up and are deduplicated below by id.
	var lastID int64
	if c.replay {
		ctx, cancel := context.WithTimeout(context.Background(), backlogTimeout)
		chunks, err := c.svc.Backlog(ctx, c.sessionID)
		cancel()
		if err != nil {
			c.logger.Warn("backlog replay failed", zap.Error(err), zap.String("session_id", c.sessionID.String()))
			return
		}
		for i := range chunks {
			if !c.writeChunk(&chunks[i]) {
				return
			}
			if chunks[i].ID > lastID {
				lastID = chunks[i].ID
			}
		}
	}

	for {
		select {
		case chunk, ok := <-c.sub.C():
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if chunk.ID <= lastID {
				continue // already delivered via backlog
			}
			if !c.writeChunk(chunk) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) writeChunk(chunk *models.TranscriptChunk) bool {
	data, err := json.Marshal(chunk)
	if err != nil {
		return false
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(WSMessage{Event: eventTranscriptChunk, Data: data}) == nil
}
