package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationStatus is the three-state visibility gate on a question.
type ModerationStatus string

const (
	StatusApproved ModerationStatus = "approved"
	StatusFlagged  ModerationStatus = "flagged"
	StatusRejected ModerationStatus = "rejected"
)

// Question is a single anonymous submission. Text holds the raw submitted
// text; participant-facing payloads must always censor it before sending.
// SequenceNumber is the durable display number (Q1, Q2, ...), unique per
// session and assigned atomically at creation.
type Question struct {
	ID             uuid.UUID        `json:"id"`
	SessionID      uuid.UUID        `json:"session_id"`
	VoterToken     string           `json:"-"`
	SequenceNumber int              `json:"sequence_number"`
	Text           string           `json:"text"`
	Status         ModerationStatus `json:"status"`
	VoteCount      int              `json:"vote_count"`
	IsAnswered     bool             `json:"is_answered"`
	AnswerText     *string          `json:"answer_text,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ModerationAction is a moderator decision applied to a question.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionUnflag  ModerationAction = "unflag"
	ActionDelete  ModerationAction = "delete"
)

// CanTransition reports whether applying action to a question in the given
// status is a legal move of the moderation machine. Delete is terminal and
// permitted from any status.
func CanTransition(status ModerationStatus, action ModerationAction) bool {
	switch action {
	case ActionApprove:
		return status == StatusFlagged
	case ActionReject:
		return status == StatusFlagged || status == StatusApproved
	case ActionUnflag:
		return status == StatusRejected
	case ActionDelete:
		return true
	}
	return false
}
