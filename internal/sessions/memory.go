package sessions

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/envo-lms/backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local runs without a
// database. Safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[uuid.UUID]models.Session
	participants map[uuid.UUID]map[uuid.UUID]models.Participant
	names        map[uuid.UUID]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[uuid.UUID]models.Session),
		participants: make(map[uuid.UUID]map[uuid.UUID]models.Participant),
		names:        make(map[uuid.UUID]string),
	}
}

// PutSession adds or replaces a session.
func (m *MemoryStore) PutSession(s models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// PutParticipant adds or replaces a participant row.
func (m *MemoryStore) PutParticipant(p models.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.participants[p.SessionID] == nil {
		m.participants[p.SessionID] = make(map[uuid.UUID]models.Participant)
	}
	m.participants[p.SessionID][p.IdentityID] = p
}

// RemoveParticipant deletes a participant row if present.
func (m *MemoryStore) RemoveParticipant(sessionID, identityID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rows, ok := m.participants[sessionID]; ok {
		delete(rows, identityID)
	}
}

// PutProfileName sets the display name shown for an identity.
func (m *MemoryStore) PutProfileName(identityID uuid.UUID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[identityID] = name
}

// GetByID returns the session or ErrNotFound.
func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

// GetParticipant returns the participant row or (nil, nil).
func (m *MemoryStore) GetParticipant(_ context.Context, sessionID, identityID uuid.UUID) (*models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.participants[sessionID]
	if !ok {
		return nil, nil
	}
	p, ok := rows[identityID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListParticipants returns participants with display names, sorted by name.
func (m *MemoryStore) ListParticipants(_ context.Context, sessionID uuid.UUID) ([]models.ParticipantInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []models.ParticipantInfo
	for _, p := range m.participants[sessionID] {
		list = append(list, models.ParticipantInfo{
			ID:   p.IdentityID,
			Name: m.names[p.IdentityID],
			Role: p.Role,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// List returns all sessions ordered by scheduled start.
func (m *MemoryStore) List(_ context.Context) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ScheduledStart.Before(list[j].ScheduledStart) })
	return list, nil
}
