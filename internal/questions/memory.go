package questions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development
// without PostgreSQL. Each call takes the lock independently, so the
// MaxSequence-then-Insert window races exactly like concurrent database
// writers and exercises the service's conflict retry.
type MemoryStore struct {
	mu        sync.Mutex
	questions map[uuid.UUID]*models.Question
	// votes[questionID][voterToken]
	votes map[uuid.UUID]map[string]*models.Vote
}

// NewMemoryStore creates an empty in-memory question store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[uuid.UUID]*models.Question),
		votes:     make(map[uuid.UUID]map[string]*models.Vote),
	}
}

func (m *MemoryStore) MaxSequence(_ context.Context, sessionID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, q := range m.questions {
		if q.SessionID == sessionID && q.SequenceNumber > max {
			max = q.SequenceNumber
		}
	}
	return max, nil
}

func (m *MemoryStore) Insert(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.questions {
		if existing.SessionID == q.SessionID && existing.SequenceNumber == q.SequenceNumber {
			return models.ErrSequenceConflict
		}
	}
	q.ID = uuid.New()
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	cp := *q
	m.questions[q.ID] = &cp
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *MemoryStore) SetStatus(_ context.Context, id uuid.UUID, status models.ModerationStatus) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	q.Status = status
	q.UpdatedAt = time.Now()
	cp := *q
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.questions, id)
	delete(m.votes, id)
	return nil
}

func (m *MemoryStore) ToggleAnswered(_ context.Context, id uuid.UUID) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	q.IsAnswered = !q.IsAnswered
	q.UpdatedAt = time.Now()
	cp := *q
	return &cp, nil
}

func (m *MemoryStore) SetAnswer(_ context.Context, id uuid.UUID, text string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	q.AnswerText = &text
	q.IsAnswered = true
	q.UpdatedAt = time.Now()
	cp := *q
	return &cp, nil
}

func (m *MemoryStore) ToggleVote(_ context.Context, questionID uuid.UUID, voterToken string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[questionID]
	if !ok {
		return 0, false, models.ErrNotFound
	}
	byVoter := m.votes[questionID]
	if byVoter == nil {
		byVoter = make(map[string]*models.Vote)
		m.votes[questionID] = byVoter
	}
	now := time.Now()
	v, ok := byVoter[voterToken]
	if !ok {
		byVoter[voterToken] = &models.Vote{
			QuestionID: questionID,
			VoterToken: voterToken,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		q.VoteCount++
		return q.VoteCount, true, nil
	}
	v.Active = !v.Active
	v.UpdatedAt = now
	if v.Active {
		q.VoteCount++
	} else if q.VoteCount > 0 {
		q.VoteCount--
	}
	return q.VoteCount, v.Active, nil
}

func (m *MemoryStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Question
	for _, q := range m.questions {
		if q.SessionID == sessionID {
			list = append(list, *q)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SequenceNumber < list[j].SequenceNumber })
	return list, nil
}

// ActiveVotes counts active vote rows for a question. Test helper for
// checking the derived vote_count invariant.
func (m *MemoryStore) ActiveVotes(questionID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.votes[questionID] {
		if v.Active {
			n++
		}
	}
	return n
}

func (m *MemoryStore) get(id uuid.UUID) (*models.Question, error) {
	q, ok := m.questions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *q
	return &cp, nil
}
