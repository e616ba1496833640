package questions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raisemyhand/backend/internal/models"
)

const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

// Repository handles question and vote persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const questionColumns = `id, session_id, voter_token, sequence_number, text, status, vote_count, is_answered, answer_text, created_at, updated_at`

// MaxSequence returns the highest sequence number in the session.
func (r *Repository) MaxSequence(ctx context.Context, sessionID uuid.UUID) (int, error) {
	const query = `SELECT COALESCE(MAX(sequence_number), 0) FROM questions WHERE session_id = $1`
	var max int
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&max)
	return max, err
}

// Insert stores a new question at its pre-assigned sequence number. A
// unique violation on (session_id, sequence_number) means a concurrent
// creator took the slot; that surfaces as models.ErrSequenceConflict for
// the service's retry loop.
func (r *Repository) Insert(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, session_id, voter_token, sequence_number, text, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, vote_count, is_answered, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, q.SessionID, q.VoterToken, q.SequenceNumber, q.Text, q.Status).
		Scan(&q.ID, &q.VoteCount, &q.IsAnswered, &q.CreatedAt, &q.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return models.ErrSequenceConflict
	}
	return err
}

// GetByID returns a question by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	return scanQuestion(r.pool.QueryRow(ctx, query, id))
}

// SetStatus updates the moderation status and returns the updated row.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.ModerationStatus) (*models.Question, error) {
	const query = `UPDATE questions SET status = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + questionColumns
	return scanQuestion(r.pool.QueryRow(ctx, query, id, status))
}

// Delete removes a question and its votes (cascade).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM questions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ToggleAnswered flips is_answered and returns the updated row.
func (r *Repository) ToggleAnswered(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const query = `UPDATE questions SET is_answered = NOT is_answered, updated_at = NOW() WHERE id = $1
		RETURNING ` + questionColumns
	return scanQuestion(r.pool.QueryRow(ctx, query, id))
}

// SetAnswer stores a written answer and marks the question answered.
func (r *Repository) SetAnswer(ctx context.Context, id uuid.UUID, text string) (*models.Question, error) {
	const query = `UPDATE questions SET answer_text = $2, is_answered = TRUE, updated_at = NOW() WHERE id = $1
		RETURNING ` + questionColumns
	return scanQuestion(r.pool.QueryRow(ctx, query, id, text))
}

// ToggleVote flips the (question, voter) vote row and adjusts the derived
// vote_count in a single transaction, so the count always equals the
// number of active vote rows.
func (r *Repository) ToggleVote(ctx context.Context, questionID uuid.UUID, voterToken string) (int, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO votes (question_id, voter_token, active) VALUES ($1, $2, TRUE)
		ON CONFLICT (question_id, voter_token)
		DO UPDATE SET active = NOT votes.active, updated_at = NOW()
		RETURNING active`
	var active bool
	if err := tx.QueryRow(ctx, upsert, questionID, voterToken).Scan(&active); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return 0, false, models.ErrNotFound
		}
		return 0, false, err
	}

	delta := -1
	if active {
		delta = 1
	}
	const update = `UPDATE questions SET vote_count = GREATEST(vote_count + $2, 0), updated_at = NOW()
		WHERE id = $1 RETURNING vote_count`
	var votes int
	if err := tx.QueryRow(ctx, update, questionID, delta).Scan(&votes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, models.ErrNotFound
		}
		return 0, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return votes, active, nil
}

// ListBySession returns the session's questions in sequence order.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE session_id = $1
		ORDER BY sequence_number`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.SessionID, &q.VoterToken, &q.SequenceNumber, &q.Text, &q.Status,
		&q.VoteCount, &q.IsAnswered, &q.AnswerText, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}
