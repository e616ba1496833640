package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one voter's upvote state on a question. The (QuestionID,
// VoterToken) pair is unique; toggling flips Active rather than inserting
// a second row, so a question's vote_count always equals the number of
// rows with Active set.
type Vote struct {
	QuestionID uuid.UUID `json:"question_id"`
	VoterToken string    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
