package transcripts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/envo-lms/backend/internal/models"
)

// Repository implements Store on top of PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a transcript repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a chunk and returns the persisted row.
func (r *Repository) Insert(ctx context.Context, in InsertChunkInput) (*models.TranscriptChunk, error) {
	const q = `INSERT INTO live_transcripts (session_id, speaker, chunk_text, is_final)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	chunk := models.TranscriptChunk{
		SessionID: in.SessionID,
		Speaker:   in.Speaker,
		Text:      in.Text,
		IsFinal:   in.IsFinal,
	}
	err := r.pool.QueryRow(ctx, q, in.SessionID, in.Speaker, in.Text, in.IsFinal).
		Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// ListBySession returns a session's chunks oldest first. The id tiebreak
// keeps replay order stable when timestamps collide.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.TranscriptChunk, error) {
	const q = `SELECT id, session_id, speaker, chunk_text, is_final, created_at
		FROM live_transcripts WHERE session_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.TranscriptChunk
	for rows.Next() {
		var c models.TranscriptChunk
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Speaker, &c.Text, &c.IsFinal, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
