package roster

import "errors"

// Engine rejections. All are terminal: retrying the same intent against the
// same state yields the same error.
var (
	// ErrInactive is returned for a mutating intent on a closed or expired roster.
	ErrInactive = errors.New("roster is no longer active")

	// ErrUnauthorized is returned when someone other than the creator closes or kicks.
	ErrUnauthorized = errors.New("only the roster creator can do that")

	// ErrFull is returned when a join would exceed the party capacity.
	ErrFull = errors.New("roster is full")

	// ErrSelfKick is returned when the creator tries to kick themselves.
	ErrSelfKick = errors.New("creator cannot kick themselves")

	// ErrInvalidIntent is returned for malformed intents or intents of the wrong kind.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrNotParticipant is returned when a non-member records a drop.
	ErrNotParticipant = errors.New("user is not a participant")
)
