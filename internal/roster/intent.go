package roster

import (
	"time"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// Intent is a single requested state transition. The set is closed.
type Intent interface {
	// Actor is the user the intent acts on behalf of. Expire has none.
	Actor() string
	// Name is a stable label used in logs and metrics.
	Name() string
	intent()
}

// SetAttendance declares (or withdraws) siege attendance.
type SetAttendance struct {
	UserID    string
	Attending bool
}

// SelectRole claims, switches or releases a role.
type SelectRole struct {
	UserID string
	Role   types.JobClass
}

// Join adds the user to a dungeon party.
type Join struct{ UserID string }

// Leave removes the user from a dungeon party.
type Leave struct{ UserID string }

// ToggleJoin is the join button: Leave when joined, Join otherwise.
type ToggleJoin struct{ UserID string }

// RecordDrop appends to the dungeon drop log. DropID and At are stamped by
// the caller so the engine stays deterministic.
type RecordDrop struct {
	UserID string
	Text   string
	DropID string
	At     time.Time
}

// Kick removes TargetID from a dungeon party on behalf of UserID.
type Kick struct {
	UserID   string
	TargetID string
}

// Close deactivates a roster. Only the creator may close.
type Close struct{ UserID string }

// Expire deactivates a roster on behalf of the expiry sweep.
type Expire struct{}

func (i SetAttendance) Actor() string { return i.UserID }
func (i SelectRole) Actor() string    { return i.UserID }
func (i Join) Actor() string          { return i.UserID }
func (i Leave) Actor() string         { return i.UserID }
func (i ToggleJoin) Actor() string    { return i.UserID }
func (i RecordDrop) Actor() string    { return i.UserID }
func (i Kick) Actor() string          { return i.UserID }
func (i Close) Actor() string         { return i.UserID }
func (Expire) Actor() string          { return "" }

func (SetAttendance) Name() string { return "set_attendance" }
func (SelectRole) Name() string    { return "select_role" }
func (Join) Name() string          { return "join" }
func (Leave) Name() string         { return "leave" }
func (ToggleJoin) Name() string    { return "toggle_join" }
func (RecordDrop) Name() string    { return "record_drop" }
func (Kick) Name() string          { return "kick" }
func (Close) Name() string         { return "close" }
func (Expire) Name() string        { return "expire" }

func (SetAttendance) intent() {}
func (SelectRole) intent()    {}
func (Join) intent()          {}
func (Leave) intent()         {}
func (ToggleJoin) intent()    {}
func (RecordDrop) intent()    {}
func (Kick) intent()          {}
func (Close) intent()         {}
func (Expire) intent()        {}

// Mutating reports whether in changes slots or attendance. Close and Expire
// are lifecycle intents and stay valid on an inactive roster.
func Mutating(in Intent) bool {
	switch in.(type) {
	case Close, Expire:
		return false
	default:
		return true
	}
}
