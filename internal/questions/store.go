package questions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

// Store is the question and vote persistence port. Implementations must
// guarantee two things the service relies on: Insert fails with
// models.ErrSequenceConflict when (session_id, sequence_number) is taken,
// and ToggleVote performs the flip and vote_count adjustment atomically
// so the derived count never drifts from the active vote rows.
type Store interface {
	// MaxSequence returns the highest sequence number in the session, 0
	// when it has no questions.
	MaxSequence(ctx context.Context, sessionID uuid.UUID) (int, error)
	// Insert stores a new question at its pre-assigned sequence number.
	Insert(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.ModerationStatus) (*models.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleAnswered(ctx context.Context, id uuid.UUID) (*models.Question, error)
	SetAnswer(ctx context.Context, id uuid.UUID, text string) (*models.Question, error)
	// ToggleVote flips the (question, voter) vote in one transaction and
	// returns the resulting vote count and whether the vote is now active.
	ToggleVote(ctx context.Context, questionID uuid.UUID, voterToken string) (votes int, active bool, err error)
	// ListBySession returns the session's questions in sequence order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Question, error)
}

// SessionGetter is the slice of the session store the question service
// needs for lifecycle checks.
type SessionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// Payload is the wire shape of a question in API responses and broadcast
// events. Participant-facing payloads carry censored text; moderator
// payloads carry the raw submission.
type Payload struct {
	ID             uuid.UUID               `json:"id"`
	SessionID      uuid.UUID               `json:"session_id"`
	SequenceNumber int                     `json:"sequence_number"`
	Text           string                  `json:"text"`
	Status         models.ModerationStatus `json:"status"`
	VoteCount      int                     `json:"vote_count"`
	IsAnswered     bool                    `json:"is_answered"`
	AnswerText     *string                 `json:"answer_text,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}
