// Package auth mints and validates session-scoped tokens. There are no
// user accounts: a moderator token is issued when a session is created,
// and a participant token (carrying an anonymous voter token) is issued
// when a client joins by code.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the session-scoped JWT claims. VoterToken is set only for
// participants; it is the opaque per-session identity used to deduplicate
// votes and is never shown to other clients.
type Claims struct {
	SessionID  uuid.UUID   `json:"session_id"`
	Role       models.Role `json:"role"`
	VoterToken string      `json:"voter_token,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// GenerateModerator creates a moderator token for a session.
func (s *JWTService) GenerateModerator(sessionID uuid.UUID) (string, error) {
	return s.generate(Claims{SessionID: sessionID, Role: models.RoleModerator})
}

// GenerateParticipant creates a participant token carrying a fresh
// anonymous voter token for the session.
func (s *JWTService) GenerateParticipant(sessionID uuid.UUID) (token, voterToken string, err error) {
	voterToken = uuid.New().String()
	token, err = s.generate(Claims{SessionID: sessionID, Role: models.RoleParticipant, VoterToken: voterToken})
	return token, voterToken, err
}

func (s *JWTService) generate(claims Claims) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != models.RoleModerator && claims.Role != models.RoleParticipant {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
