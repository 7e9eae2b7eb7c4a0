package roster

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// ErrCorrupt is returned by Validate when a roster breaks a structural rule.
var ErrCorrupt = errors.New("roster state is inconsistent")

// Validate checks the structural rules every roster must satisfy after an
// engine application. It is used on creation and when decoding stored state.
func (r Roster) Validate() error {
	if r.ID == "" || r.CreatorID == "" {
		return fmt.Errorf("%w: id and creator are required", ErrCorrupt)
	}
	switch r.Kind {
	case types.KindSiege:
		if r.Siege == nil || r.Dungeon != nil {
			return fmt.Errorf("%w: siege roster must carry siege state only", ErrCorrupt)
		}
		return r.Siege.validate()
	case types.KindDungeonRun:
		if r.Dungeon == nil || r.Siege != nil {
			return fmt.Errorf("%w: dungeon roster must carry dungeon state only", ErrCorrupt)
		}
		return r.Dungeon.validate()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrCorrupt, r.Kind)
	}
}

func (s *SiegeState) validate() error {
	for role, n := range s.Capacity {
		if !types.IsValidJobClass(role) || n < 0 {
			return fmt.Errorf("%w: bad capacity %q=%d", ErrCorrupt, role, n)
		}
	}
	for _, u := range s.Attending {
		if slices.Contains(s.Declined, u) {
			return fmt.Errorf("%w: %s both attending and declined", ErrCorrupt, u)
		}
	}

	seen := map[string]bool{}
	check := func(groups map[types.JobClass][]string, bound bool) error {
		for role, ids := range groups {
			if bound && len(ids) > s.Capacity[role] {
				return fmt.Errorf("%w: %s over capacity", ErrCorrupt, role)
			}
			for _, u := range ids {
				if seen[u] {
					return fmt.Errorf("%w: %s holds more than one slot", ErrCorrupt, u)
				}
				seen[u] = true
				if !s.IsAttending(u) {
					return fmt.Errorf("%w: %s holds a slot without attending", ErrCorrupt, u)
				}
			}
		}
		return nil
	}
	if err := check(s.Principals, true); err != nil {
		return err
	}
	return check(s.Waitlist, false)
}

func (d *DungeonState) validate() error {
	if d.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrCorrupt)
	}
	if len(d.Participants) > d.Capacity {
		return fmt.Errorf("%w: party over capacity", ErrCorrupt)
	}
	tagged := map[string]bool{}
	for role, ids := range d.Roles {
		for _, u := range ids {
			if tagged[u] {
				return fmt.Errorf("%w: %s tagged with more than one role", ErrCorrupt, u)
			}
			tagged[u] = true
			if !d.IsParticipant(u) {
				return fmt.Errorf("%w: %s tagged %s without joining", ErrCorrupt, u, role)
			}
		}
	}
	return nil
}
