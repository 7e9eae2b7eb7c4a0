package repository

import (
	"context"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
)

// memRosterRepository keeps rosters in process memory. Used for local runs
// without Postgres and in tests.
type memRosterRepository struct {
	rosters *xsync.Map[string, roster.Roster]
}

func NewMemoryRosterRepository() RosterRepository {
	return &memRosterRepository{rosters: xsync.NewMap[string, roster.Roster]()}
}

func (r *memRosterRepository) Create(ctx context.Context, ro *roster.Roster) error {
	stored := ro.Clone()
	stored.Version = 1
	if _, loaded := r.rosters.LoadOrStore(ro.ID, stored); loaded {
		return ErrRosterExists
	}
	ro.Version = 1
	return nil
}

func (r *memRosterRepository) FindByID(ctx context.Context, id string) (*roster.Roster, error) {
	stored, ok := r.rosters.Load(id)
	if !ok {
		return nil, nil
	}
	out := stored.Clone()
	return &out, nil
}

func (r *memRosterRepository) Save(ctx context.Context, ro *roster.Roster, expectedVersion int64) error {
	var conflict bool
	next := ro.Clone()
	next.Version = expectedVersion + 1

	r.rosters.Compute(ro.ID, func(old roster.Roster, loaded bool) (roster.Roster, xsync.ComputeOp) {
		conflict = !loaded || old.Version != expectedVersion
		if conflict {
			return old, xsync.CancelOp
		}
		return next, xsync.UpdateOp
	})
	if conflict {
		return ErrVersionConflict
	}
	ro.Version = next.Version
	return nil
}

func (r *memRosterRepository) ListActive(ctx context.Context, channelID string) ([]*roster.Roster, error) {
	out := r.collect(func(ro roster.Roster) bool {
		return ro.Active && (channelID == "" || ro.Details.ChannelID == channelID)
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Details.CreatedAt.After(out[j].Details.CreatedAt)
	})
	return out, nil
}

func (r *memRosterRepository) FindExpired(ctx context.Context, now time.Time) ([]*roster.Roster, error) {
	out := r.collect(func(ro roster.Roster) bool {
		exp := ro.Details.ExpiresAt
		return ro.Active && !exp.IsZero() && !exp.After(now)
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Details.ExpiresAt.Before(out[j].Details.ExpiresAt)
	})
	return out, nil
}

func (r *memRosterRepository) collect(keep func(roster.Roster) bool) []*roster.Roster {
	out := []*roster.Roster{}
	r.rosters.Range(func(_ string, ro roster.Roster) bool {
		if keep(ro) {
			c := ro.Clone()
			out = append(out, &c)
		}
		return true
	})
	return out
}
