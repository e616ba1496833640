package realtime

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/models"
)

// Event names pushed to subscribers.
const (
	EventQuestionCreated    = "question_created"
	EventQuestionUpdated    = "question_updated"
	EventQuestionDeleted    = "question_deleted"
	EventVoteUpdated        = "vote_updated"
	EventVotingStateChanged = "voting_state_changed"
	EventSessionEnded       = "session_ended"
)

// Event is the role-neutral state-change handed to the hub by a mutating
// operation. The hub picks the payload per subscriber: moderators receive
// Moderator, participants receive Participant. A nil payload skips that
// role entirely; Status additionally gates participant delivery through
// models.VisibleTo. A zero Status means the event is not question-gated
// (session-level events).
type Event struct {
	Name        string
	SessionID   uuid.UUID
	QuestionID  uuid.UUID
	Status      models.ModerationStatus
	Moderator   interface{}
	Participant interface{}
}

// frame is the marshaled form of an Event, both delivered locally and
// published to Redis for other instances. Payloads stay role-neutral on
// the wire; every hub re-applies the visibility filter before delivery.
type frame struct {
	Name        string                  `json:"event"`
	SessionID   uuid.UUID               `json:"session_id"`
	QuestionID  uuid.UUID               `json:"question_id,omitempty"`
	Status      models.ModerationStatus `json:"status,omitempty"`
	Moderator   json.RawMessage         `json:"moderator,omitempty"`
	Participant json.RawMessage         `json:"participant,omitempty"`
}

func (e Event) encode() (frame, error) {
	f := frame{
		Name:       e.Name,
		SessionID:  e.SessionID,
		QuestionID: e.QuestionID,
		Status:     e.Status,
	}
	var err error
	if e.Moderator != nil {
		if f.Moderator, err = json.Marshal(e.Moderator); err != nil {
			return frame{}, err
		}
	}
	if e.Participant != nil {
		if f.Participant, err = json.Marshal(e.Participant); err != nil {
			return frame{}, err
		}
	}
	return f, nil
}

// payloadFor returns the role-appropriate payload and whether this
// subscriber should receive the event at all.
func (f frame) payloadFor(role models.Role) (json.RawMessage, bool) {
	switch role {
	case models.RoleModerator:
		if f.Moderator == nil {
			return nil, false
		}
		return f.Moderator, true
	case models.RoleParticipant:
		if f.Participant == nil {
			return nil, false
		}
		if f.Status != "" && !models.VisibleTo(models.RoleParticipant, f.Status) {
			return nil, false
		}
		return f.Participant, true
	}
	return nil, false
}
