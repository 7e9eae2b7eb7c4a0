package roster

import (
	"fmt"
	"slices"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

func applySiege(s *SiegeState, in Intent) (Outcome, error) {
	switch in := in.(type) {
	case SetAttendance:
		if in.Attending {
			return s.attend(in.UserID), nil
		}
		return s.decline(in.UserID), nil
	case SelectRole:
		if _, ok := s.Capacity[in.Role]; !ok || !types.IsValidJobClass(in.Role) {
			return Outcome{}, fmt.Errorf("%w: role %q is not offered", ErrInvalidIntent, in.Role)
		}
		return s.selectRole(in.UserID, in.Role), nil
	default:
		return Outcome{}, wrongKind(in, types.KindSiege)
	}
}

func (s *SiegeState) attend(u string) Outcome {
	var wasDeclined bool
	s.Declined, wasDeclined = without(s.Declined, u)
	if s.IsAttending(u) && !wasDeclined {
		return noop(u)
	}
	if !s.IsAttending(u) {
		s.Attending = append(s.Attending, u)
	}
	return Outcome{Result: ResultAttending, UserID: u}
}

// decline moves u to declined and releases any slot u holds.
func (s *SiegeState) decline(u string) Outcome {
	var wasAttending bool
	s.Attending, wasAttending = without(s.Attending, u)
	role, promoted, held := s.vacate(u)
	if slices.Contains(s.Declined, u) && !wasAttending && !held {
		return noop(u)
	}
	if !slices.Contains(s.Declined, u) {
		s.Declined = append(s.Declined, u)
	}
	out := Outcome{Result: ResultDeclined, UserID: u, Promoted: promoted}
	if held {
		out.FromRole = role
	}
	return out
}

func (s *SiegeState) selectRole(u string, role types.JobClass) Outcome {
	if principals, ok := without(s.Principals[role], u); ok {
		s.Principals[role] = principals
		return Outcome{Result: ResultRemoved, UserID: u, Role: role, Promoted: s.promote(role)}
	}
	if waiting, ok := without(s.Waitlist[role], u); ok {
		s.Waitlist[role] = waiting
		return Outcome{Result: ResultRemoved, UserID: u, Role: role}
	}

	from, promoted, _ := s.vacate(u)
	out := Outcome{UserID: u, Role: role, FromRole: from, Promoted: promoted}
	if len(s.Principals[role]) < s.Capacity[role] {
		s.Principals[role] = append(s.Principals[role], u)
		out.Result = ResultAdded
	} else {
		s.Waitlist[role] = append(s.Waitlist[role], u)
		out.Result = ResultMovedToWaitlist
	}

	s.Declined, _ = without(s.Declined, u)
	if !s.IsAttending(u) {
		s.Attending = append(s.Attending, u)
	}
	return out
}

// vacate removes u from whichever principal or waitlist sequence holds it,
// promoting into a vacated principal slot.
func (s *SiegeState) vacate(u string) (types.JobClass, []Promotion, bool) {
	role, waitlisted, ok := s.SlotOf(u)
	if !ok {
		return "", nil, false
	}
	if waitlisted {
		s.Waitlist[role], _ = without(s.Waitlist[role], u)
		return role, nil, true
	}
	s.Principals[role], _ = without(s.Principals[role], u)
	return role, s.promote(role), true
}

// promote fills one free principal slot in role from the head of its waitlist.
func (s *SiegeState) promote(role types.JobClass) []Promotion {
	waiting := s.Waitlist[role]
	if len(waiting) == 0 || len(s.Principals[role]) >= s.Capacity[role] {
		return nil
	}
	head := waiting[0]
	s.Waitlist[role] = slices.Delete(waiting, 0, 1)
	s.Principals[role] = append(s.Principals[role], head)
	return []Promotion{{Role: role, UserID: head}}
}
