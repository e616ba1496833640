package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

// Store is the session persistence port. The pgx implementation is used
// in production; tests run against the in-memory one.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	// ToggleVoting flips voting_enabled and returns the new value.
	ToggleVoting(ctx context.Context, id uuid.UUID) (bool, error)
	// End marks the session ended. Idempotent.
	End(ctx context.Context, id uuid.UUID) error
	// Restart re-activates an ended session. No-op when already active.
	Restart(ctx context.Context, id uuid.UUID) error
}

// NewJoinCode generates a short random join code for participants.
func NewJoinCode() string {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process is in far worse trouble
		// than a predictable code; fall back to a uuid fragment.
		return strings.ToUpper(uuid.New().String()[:8])
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b[:])
}
