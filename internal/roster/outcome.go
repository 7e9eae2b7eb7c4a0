package roster

import "github.com/Marga-Ghale/ora-roster-backend/internal/types"

// Result names what an applied intent did.
type Result string

const (
	ResultAdded           Result = "added"
	ResultRemoved         Result = "removed"
	ResultMovedToWaitlist Result = "moved_to_waitlist"
	ResultAttending       Result = "attending"
	ResultDeclined        Result = "declined"
	ResultJoined          Result = "joined"
	ResultLeft            Result = "left"
	ResultDropRecorded    Result = "drop_recorded"
	ResultKicked          Result = "kicked"
	ResultClosed          Result = "closed"
	ResultExpired         Result = "expired"
	ResultNoOp            Result = "noop"
)

// Promotion records a waitlisted user moved into a vacated principal slot.
type Promotion struct {
	Role   types.JobClass `json:"role"`
	UserID string         `json:"userId"`
}

// Outcome describes the effect of one intent.
type Outcome struct {
	Result Result `json:"result"`
	// UserID is the user whose membership changed (the kick target for Kick).
	UserID string `json:"userId,omitempty"`
	// Role is the role claimed or released.
	Role types.JobClass `json:"role,omitempty"`
	// FromRole is the role vacated by a switch.
	FromRole   types.JobClass `json:"fromRole,omitempty"`
	AutoJoined bool           `json:"autoJoined,omitempty"`
	Promoted   []Promotion    `json:"promoted,omitempty"`
	Drop       *DropRecord    `json:"drop,omitempty"`
}

// NoOp reports whether the intent left the roster unchanged.
func (o Outcome) NoOp() bool {
	return o.Result == ResultNoOp
}

func noop(u string) Outcome {
	return Outcome{Result: ResultNoOp, UserID: u}
}
