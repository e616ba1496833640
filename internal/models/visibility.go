package models

// Role tags a connected subscriber or API caller.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
)

// VisibleTo is the single visibility predicate for the role x status
// product. Moderators see every status; participants only ever see
// approved questions. All participant-facing filtering (REST reads and
// broadcast fan-out) must go through this predicate.
func VisibleTo(role Role, status ModerationStatus) bool {
	if role == RoleModerator {
		return true
	}
	return status == StatusApproved
}
