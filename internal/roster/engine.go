package roster

import (
	"fmt"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// Apply returns the roster that results from applying in to r. r itself is
// never modified. On error the returned roster is r unchanged.
func Apply(r Roster, in Intent) (Roster, Outcome, error) {
	if in == nil {
		return r, Outcome{}, fmt.Errorf("%w: nil intent", ErrInvalidIntent)
	}

	next := r.Clone()
	out, err := apply(&next, in)
	if err != nil {
		return r, Outcome{}, err
	}
	return next, out, nil
}

func apply(r *Roster, in Intent) (Outcome, error) {
	switch in := in.(type) {
	case Expire:
		if !r.Active {
			return noop(""), nil
		}
		r.Active = false
		return Outcome{Result: ResultExpired}, nil

	case Close:
		if in.UserID == "" {
			return Outcome{}, fmt.Errorf("%w: missing user", ErrInvalidIntent)
		}
		if in.UserID != r.CreatorID {
			return Outcome{}, ErrUnauthorized
		}
		if !r.Active {
			return noop(in.UserID), nil
		}
		r.Active = false
		return Outcome{Result: ResultClosed, UserID: in.UserID}, nil
	}

	if in.Actor() == "" {
		return Outcome{}, fmt.Errorf("%w: missing user", ErrInvalidIntent)
	}
	if !r.Active {
		return Outcome{}, ErrInactive
	}

	switch r.Kind {
	case types.KindSiege:
		if r.Siege == nil {
			return Outcome{}, fmt.Errorf("%w: siege roster has no state", ErrInvalidIntent)
		}
		return applySiege(r.Siege, in)
	case types.KindDungeonRun:
		if r.Dungeon == nil {
			return Outcome{}, fmt.Errorf("%w: dungeon roster has no state", ErrInvalidIntent)
		}
		return applyDungeon(r.Dungeon, r.CreatorID, in)
	default:
		return Outcome{}, fmt.Errorf("%w: unknown roster kind %q", ErrInvalidIntent, r.Kind)
	}
}

func wrongKind(in Intent, kind types.RosterKind) error {
	return fmt.Errorf("%w: %s does not apply to %s", ErrInvalidIntent, in.Name(), kind)
}
