package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raisemyhand/backend/internal/models"
)

// Report is the moderator's post-session summary: every question
// regardless of status, ranked by votes, with aggregate stats.
type Report struct {
	Session   SessionSummary   `json:"session"`
	Stats     Stats            `json:"stats"`
	Questions []ReportQuestion `json:"questions"`
}

// SessionSummary is the session metadata on a report.
type SessionSummary struct {
	ID        uuid.UUID           `json:"id"`
	Code      string              `json:"code"`
	Title     string              `json:"title"`
	State     models.SessionState `json:"state"`
	CreatedAt time.Time           `json:"created_at"`
	EndedAt   *time.Time          `json:"ended_at,omitempty"`
}

// Stats aggregates the session's question activity.
type Stats struct {
	TotalQuestions    int `json:"total_questions"`
	ApprovedQuestions int `json:"approved_questions"`
	FlaggedQuestions  int `json:"flagged_questions"`
	RejectedQuestions int `json:"rejected_questions"`
	AnsweredQuestions int `json:"answered_questions"`
	TotalVotes        int `json:"total_votes"`
}

// ReportQuestion is a question row on a report. Text is raw: reports are
// moderator-only.
type ReportQuestion struct {
	ID             uuid.UUID               `json:"id"`
	SequenceNumber int                     `json:"sequence_number"`
	Text           string                  `json:"text"`
	Status         models.ModerationStatus `json:"status"`
	VoteCount      int                     `json:"vote_count"`
	IsAnswered     bool                    `json:"is_answered"`
	AnswerText     *string                 `json:"answer_text,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// Repository builds session reports from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Build assembles the report for a session.
func (r *Repository) Build(ctx context.Context, sessionID uuid.UUID) (*Report, error) {
	const sessionQuery = `SELECT id, code, title, state, created_at, ended_at
		FROM sessions WHERE id = $1`
	var rep Report
	err := r.pool.QueryRow(ctx, sessionQuery, sessionID).Scan(
		&rep.Session.ID, &rep.Session.Code, &rep.Session.Title,
		&rep.Session.State, &rep.Session.CreatedAt, &rep.Session.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	const questionsQuery = `SELECT id, sequence_number, text, status, vote_count, is_answered, answer_text, created_at
		FROM questions WHERE session_id = $1
		ORDER BY vote_count DESC, sequence_number ASC`
	rows, err := r.pool.Query(ctx, questionsQuery, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rep.Questions = []ReportQuestion{}
	for rows.Next() {
		var q ReportQuestion
		if err := rows.Scan(&q.ID, &q.SequenceNumber, &q.Text, &q.Status,
			&q.VoteCount, &q.IsAnswered, &q.AnswerText, &q.CreatedAt); err != nil {
			return nil, err
		}
		rep.Questions = append(rep.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, q := range rep.Questions {
		rep.Stats.TotalQuestions++
		rep.Stats.TotalVotes += q.VoteCount
		if q.IsAnswered {
			rep.Stats.AnsweredQuestions++
		}
		switch q.Status {
		case models.StatusApproved:
			rep.Stats.ApprovedQuestions++
		case models.StatusFlagged:
			rep.Stats.FlaggedQuestions++
		case models.StatusRejected:
			rep.Stats.RejectedQuestions++
		}
	}
	return &rep, nil
}
