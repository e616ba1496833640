package auth

import (
	"testing"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

func TestModeratorTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	sid := uuid.New()

	token, err := svc.GenerateModerator(sid)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != sid {
		t.Fatalf("session id = %s, want %s", claims.SessionID, sid)
	}
	if claims.Role != models.RoleModerator {
		t.Fatalf("role = %s", claims.Role)
	}
	if claims.VoterToken != "" {
		t.Fatal("moderator token must not carry a voter token")
	}
}

func TestParticipantTokenCarriesVoterToken(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	sid := uuid.New()

	token, voterToken, err := svc.GenerateParticipant(sid)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if voterToken == "" {
		t.Fatal("expected a voter token")
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != models.RoleParticipant {
		t.Fatalf("role = %s", claims.Role)
	}
	if claims.VoterToken != voterToken {
		t.Fatal("claims voter token does not match issued one")
	}

	// Each join mints a distinct identity.
	_, second, err := svc.GenerateParticipant(sid)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if second == voterToken {
		t.Fatal("voter tokens must be unique per join")
	}
}

func TestValidateRejectsForgedToken(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	other := NewJWTService("other-secret", 1)

	token, err := other.GenerateModerator(uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Fatal("token signed with a different secret must fail")
	}
	if _, err := svc.Validate("not-a-token"); err == nil {
		t.Fatal("garbage must fail validation")
	}
}
