package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/envo-lms/backend/internal/models"
)

// Repository implements Store on top of PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a session by ID, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `SELECT id, title, kind, mode, scheduled_start, scheduled_end, room_reference, location, owner_id, created_at, updated_at
		FROM lms_sessions WHERE id = $1`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.Title, &s.Kind, &s.Mode, &s.ScheduledStart, &s.ScheduledEnd,
		&s.RoomReference, &s.Location, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetParticipant returns the participant row for (session, identity), or nil.
func (r *Repository) GetParticipant(ctx context.Context, sessionID, identityID uuid.UUID) (*models.Participant, error) {
	const q = `SELECT session_id, identity_id, role, created_at
		FROM session_participants WHERE session_id = $1 AND identity_id = $2`
	var p models.Participant
	err := r.pool.QueryRow(ctx, q, sessionID, identityID).Scan(&p.SessionID, &p.IdentityID, &p.Role, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipants returns the participants of a session with display names.
func (r *Repository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.ParticipantInfo, error) {
	const q = `SELECT sp.identity_id, COALESCE(pr.full_name, ''), sp.role
		FROM session_participants sp
		LEFT JOIN profiles pr ON pr.id = sp.identity_id
		WHERE sp.session_id = $1
		ORDER BY pr.full_name`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ParticipantInfo
	for rows.Next() {
		var p models.ParticipantInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.Role); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// List returns all sessions ordered by scheduled start.
func (r *Repository) List(ctx context.Context) ([]models.Session, error) {
	const q = `SELECT id, title, kind, mode, scheduled_start, scheduled_end, room_reference, location, owner_id, created_at, updated_at
		FROM lms_sessions ORDER BY scheduled_start ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Title, &s.Kind, &s.Mode, &s.ScheduledStart, &s.ScheduledEnd,
			&s.RoomReference, &s.Location, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
