package models

import "errors"

// Domain errors returned by stores and services. Handlers map these to
// HTTP status codes; everything else is treated as internal.
var (
	// ErrValidation marks bad input. Never retried.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound marks an unknown or deleted id.
	ErrNotFound = errors.New("not found")
	// ErrSessionClosed marks a question/vote write against an ended session.
	ErrSessionClosed = errors.New("session is ended")
	// ErrVotingClosed marks a vote while voting is disabled.
	ErrVotingClosed = errors.New("voting is disabled")
	// ErrInvalidTransition marks an illegal moderation state change.
	ErrInvalidTransition = errors.New("invalid moderation transition")
	// ErrSequenceConflict is the per-attempt numbering collision; callers
	// retry it internally up to a bounded attempt count.
	ErrSequenceConflict = errors.New("sequence number conflict")
	// ErrNumberingContention is surfaced after the retry budget is
	// exhausted; it is safe for the caller to retry with backoff.
	ErrNumberingContention = errors.New("numbering contention, retry later")
)
