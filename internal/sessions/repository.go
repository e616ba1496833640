package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raisemyhand/backend/internal/models"
)

// Repository handles session persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = `id, code, title, state, voting_enabled, password_hash, created_at, ended_at`

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	const query = `INSERT INTO sessions (id, code, title, state, voting_enabled, password_hash)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, s.Code, s.Title, s.State, s.VotingEnabled, s.PasswordHash).
		Scan(&s.ID, &s.CreatedAt)
}

// GetByID returns a session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByCode returns a session by its participant join code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE code = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, code))
}

// ToggleVoting flips voting_enabled and returns the new value.
func (r *Repository) ToggleVoting(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE sessions SET voting_enabled = NOT voting_enabled WHERE id = $1
		RETURNING voting_enabled`
	var enabled bool
	err := r.pool.QueryRow(ctx, query, id).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, models.ErrNotFound
	}
	return enabled, err
}

// End marks the session ended. Idempotent: ended stays ended.
func (r *Repository) End(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE sessions SET state = 'ended', ended_at = COALESCE(ended_at, NOW())
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Restart re-activates an ended session. No-op when already active.
func (r *Repository) Restart(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE sessions SET state = 'active', ended_at = NULL WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.Code, &s.Title, &s.State, &s.VotingEnabled, &s.PasswordHash, &s.CreatedAt, &s.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
