package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from   ModerationStatus
		action ModerationAction
		want   bool
	}{
		{StatusFlagged, ActionApprove, true},
		{StatusApproved, ActionApprove, false},
		{StatusRejected, ActionApprove, false},

		{StatusFlagged, ActionReject, true},
		{StatusApproved, ActionReject, true},
		{StatusRejected, ActionReject, false},

		{StatusRejected, ActionUnflag, true},
		{StatusFlagged, ActionUnflag, false},
		{StatusApproved, ActionUnflag, false},

		{StatusApproved, ActionDelete, true},
		{StatusFlagged, ActionDelete, true},
		{StatusRejected, ActionDelete, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.action); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.action, got, tc.want)
		}
	}
}

func TestVisibleTo(t *testing.T) {
	statuses := []ModerationStatus{StatusApproved, StatusFlagged, StatusRejected}
	for _, st := range statuses {
		if !VisibleTo(RoleModerator, st) {
			t.Errorf("moderator should see %s questions", st)
		}
	}
	if !VisibleTo(RoleParticipant, StatusApproved) {
		t.Error("participant should see approved questions")
	}
	if VisibleTo(RoleParticipant, StatusFlagged) {
		t.Error("participant must not see flagged questions")
	}
	if VisibleTo(RoleParticipant, StatusRejected) {
		t.Error("participant must not see rejected questions")
	}
}
