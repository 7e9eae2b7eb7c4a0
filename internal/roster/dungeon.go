package roster

import (
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// MaxDropTextLength bounds a single drop log entry.
const MaxDropTextLength = 1000

func applyDungeon(d *DungeonState, creatorID string, in Intent) (Outcome, error) {
	switch in := in.(type) {
	case Join:
		return d.join(in.UserID)
	case Leave:
		return d.leave(in.UserID), nil
	case ToggleJoin:
		if d.IsParticipant(in.UserID) {
			return d.leave(in.UserID), nil
		}
		return d.join(in.UserID)
	case SelectRole:
		if !types.IsValidJobClass(in.Role) {
			return Outcome{}, fmt.Errorf("%w: unknown role %q", ErrInvalidIntent, in.Role)
		}
		return d.selectRole(in.UserID, in.Role)
	case RecordDrop:
		return d.recordDrop(in)
	case Kick:
		return d.kick(creatorID, in)
	default:
		return Outcome{}, wrongKind(in, types.KindDungeonRun)
	}
}

func (d *DungeonState) join(u string) (Outcome, error) {
	if d.IsParticipant(u) {
		return noop(u), nil
	}
	if d.Full() {
		return Outcome{}, ErrFull
	}
	d.Participants = append(d.Participants, u)
	return Outcome{Result: ResultJoined, UserID: u}, nil
}

func (d *DungeonState) leave(u string) Outcome {
	var ok bool
	d.Participants, ok = without(d.Participants, u)
	if !ok {
		return noop(u)
	}
	return Outcome{Result: ResultLeft, UserID: u, FromRole: d.untag(u)}
}

func (d *DungeonState) selectRole(u string, role types.JobClass) (Outcome, error) {
	if tagged, ok := without(d.Roles[role], u); ok {
		d.Roles[role] = tagged
		return Outcome{Result: ResultRemoved, UserID: u, Role: role}, nil
	}

	out := Outcome{Result: ResultAdded, UserID: u, Role: role}
	if !d.IsParticipant(u) {
		if d.Full() {
			return Outcome{}, ErrFull
		}
		d.Participants = append(d.Participants, u)
		out.AutoJoined = true
	}
	out.FromRole = d.untag(u)
	d.Roles[role] = append(d.Roles[role], u)
	return out, nil
}

func (d *DungeonState) recordDrop(in RecordDrop) (Outcome, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Outcome{}, fmt.Errorf("%w: drop text is required", ErrInvalidIntent)
	}
	if len(text) > MaxDropTextLength {
		return Outcome{}, fmt.Errorf("%w: drop text longer than %d bytes", ErrInvalidIntent, MaxDropTextLength)
	}
	if in.DropID == "" {
		return Outcome{}, fmt.Errorf("%w: drop id is required", ErrInvalidIntent)
	}
	if !d.IsParticipant(in.UserID) {
		return Outcome{}, ErrNotParticipant
	}
	rec := DropRecord{ID: in.DropID, RecordedBy: in.UserID, Text: text, RecordedAt: in.At}
	d.Drops = append(d.Drops, rec)
	return Outcome{Result: ResultDropRecorded, UserID: in.UserID, Drop: &rec}, nil
}

func (d *DungeonState) kick(creatorID string, in Kick) (Outcome, error) {
	if in.UserID != creatorID {
		return Outcome{}, ErrUnauthorized
	}
	if in.TargetID == "" {
		return Outcome{}, fmt.Errorf("%w: missing kick target", ErrInvalidIntent)
	}
	if in.TargetID == creatorID {
		return Outcome{}, ErrSelfKick
	}
	out := d.leave(in.TargetID)
	if out.NoOp() {
		return out, nil
	}
	out.Result = ResultKicked
	return out, nil
}

// untag removes u from every role tag and returns the role it held.
func (d *DungeonState) untag(u string) types.JobClass {
	var held types.JobClass
	for role, ids := range d.Roles {
		if rest, ok := without(ids, u); ok {
			d.Roles[role] = rest
			held = role
		}
	}
	return held
}
