package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development
// without PostgreSQL.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*models.Session
	idByCode map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[uuid.UUID]*models.Session),
		idByCode: make(map[string]uuid.UUID),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	m.byID[s.ID] = &cp
	m.idByCode[s.Code] = s.ID
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.idByCode[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryStore) ToggleVoting(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return false, models.ErrNotFound
	}
	s.VotingEnabled = !s.VotingEnabled
	return s.VotingEnabled, nil
}

func (m *MemoryStore) End(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	if s.State != models.SessionEnded {
		now := time.Now()
		s.State = models.SessionEnded
		s.EndedAt = &now
	}
	return nil
}

func (m *MemoryStore) Restart(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	s.State = models.SessionActive
	s.EndedAt = nil
	return nil
}
