package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

func TestNewJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewJoinCode()
		if len(code) != 8 {
			t.Fatalf("join code %q length = %d", code, len(code))
		}
		if seen[code] {
			t.Fatalf("duplicate join code %q", code)
		}
		seen[code] = true
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := &models.Session{
		Code:          NewJoinCode(),
		Title:         "ask me anything",
		State:         models.SessionActive,
		VotingEnabled: true,
	}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == uuid.Nil {
		t.Fatal("create did not assign an id")
	}

	byCode, err := store.GetByCode(ctx, s.Code)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if byCode.ID != s.ID {
		t.Fatal("code lookup returned wrong session")
	}

	enabled, err := store.ToggleVoting(ctx, s.ID)
	if err != nil {
		t.Fatalf("toggle voting: %v", err)
	}
	if enabled {
		t.Fatal("expected voting disabled after toggle")
	}

	if err := store.End(ctx, s.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	ended, _ := store.GetByID(ctx, s.ID)
	if ended.State != models.SessionEnded || ended.EndedAt == nil {
		t.Fatalf("end did not mark session: state=%s endedAt=%v", ended.State, ended.EndedAt)
	}
	firstEnd := *ended.EndedAt

	// End is idempotent: a second call keeps the original timestamp.
	if err := store.End(ctx, s.ID); err != nil {
		t.Fatalf("second end: %v", err)
	}
	again, _ := store.GetByID(ctx, s.ID)
	if !again.EndedAt.Equal(firstEnd) {
		t.Fatal("second end moved the ended_at timestamp")
	}

	if err := store.Restart(ctx, s.ID); err != nil {
		t.Fatalf("restart: %v", err)
	}
	restarted, _ := store.GetByID(ctx, s.ID)
	if restarted.State != models.SessionActive || restarted.EndedAt != nil {
		t.Fatal("restart did not reactivate session")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.GetByID(ctx, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
	if _, err := store.GetByCode(ctx, "NOPE"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("get missing code: %v", err)
	}
	if err := store.End(ctx, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("end missing: %v", err)
	}
}
