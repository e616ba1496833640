package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a Q&A session.
type SessionState string

const (
	SessionActive SessionState = "active"
	SessionEnded  SessionState = "ended"
)

// Session represents one live Q&A room, joined by code.
// VotingEnabled is independent of the lifecycle state: a session can be
// active with voting paused.
type Session struct {
	ID            uuid.UUID    `json:"id"`
	Code          string       `json:"code"`
	Title         string       `json:"title"`
	State         SessionState `json:"state"`
	VotingEnabled bool         `json:"voting_enabled"`
	PasswordHash  string       `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
}

// HasPassword reports whether joining the session requires a password.
func (s *Session) HasPassword() bool {
	return s.PasswordHash != ""
}
