// Package roster holds the roster data model and the engine that decides how
// an intent changes it. Nothing in this package performs I/O.
package roster

import (
	"slices"
	"time"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// Details are the descriptive fields shown alongside a roster. The engine
// never reads them.
type Details struct {
	ChannelID string    `json:"channelId"`
	Title     string    `json:"title"`
	Tier      string    `json:"tier,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Timezone  string    `json:"timezone,omitempty"`
	StartsAt  time.Time `json:"startsAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Roster is the authoritative state of one event.
type Roster struct {
	ID        string           `json:"id"`
	Kind      types.RosterKind `json:"kind"`
	CreatorID string           `json:"creatorId"`
	Active    bool             `json:"isActive"`
	Version   int64            `json:"version"`
	Details   Details          `json:"details"`

	Siege   *SiegeState   `json:"siege,omitempty"`
	Dungeon *DungeonState `json:"dungeon,omitempty"`
}

// SiegeState tracks attendance plus role slots with a FIFO waitlist per role.
type SiegeState struct {
	Capacity   map[types.JobClass]int      `json:"capacity"`
	Attending  []string                    `json:"attending"`
	Declined   []string                    `json:"declined"`
	Principals map[types.JobClass][]string `json:"principals"`
	Waitlist   map[types.JobClass][]string `json:"waitlist"`
}

// DungeonState tracks a flat party with informational role tags and a drop log.
type DungeonState struct {
	Capacity     int                         `json:"capacity"`
	Participants []string                    `json:"participants"`
	Roles        map[types.JobClass][]string `json:"roles"`
	Drops        []DropRecord                `json:"drops"`
}

// DropRecord is one entry in a dungeon run's append-only drop log.
type DropRecord struct {
	ID         string    `json:"id"`
	RecordedBy string    `json:"recordedBy"`
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recordedAt"`
}

// NewSiege returns an active siege roster with empty collections.
func NewSiege(id, creatorID string, capacity map[types.JobClass]int, details Details) Roster {
	caps := make(map[types.JobClass]int, len(capacity))
	for role, n := range capacity {
		caps[role] = n
	}
	return Roster{
		ID:        id,
		Kind:      types.KindSiege,
		CreatorID: creatorID,
		Active:    true,
		Details:   details,
		Siege: &SiegeState{
			Capacity:   caps,
			Attending:  []string{},
			Declined:   []string{},
			Principals: map[types.JobClass][]string{},
			Waitlist:   map[types.JobClass][]string{},
		},
	}
}

// NewDungeonRun returns an active dungeon run roster with empty collections.
func NewDungeonRun(id, creatorID string, capacity int, details Details) Roster {
	return Roster{
		ID:        id,
		Kind:      types.KindDungeonRun,
		CreatorID: creatorID,
		Active:    true,
		Details:   details,
		Dungeon: &DungeonState{
			Capacity:     capacity,
			Participants: []string{},
			Roles:        map[types.JobClass][]string{},
			Drops:        []DropRecord{},
		},
	}
}

// Clone returns a deep copy that shares no slices or maps with r.
func (r Roster) Clone() Roster {
	out := r
	if r.Siege != nil {
		s := r.Siege.clone()
		out.Siege = &s
	}
	if r.Dungeon != nil {
		d := r.Dungeon.clone()
		out.Dungeon = &d
	}
	return out
}

func (s SiegeState) clone() SiegeState {
	caps := make(map[types.JobClass]int, len(s.Capacity))
	for role, n := range s.Capacity {
		caps[role] = n
	}
	return SiegeState{
		Capacity:   caps,
		Attending:  cloneIDs(s.Attending),
		Declined:   cloneIDs(s.Declined),
		Principals: cloneRoleMap(s.Principals),
		Waitlist:   cloneRoleMap(s.Waitlist),
	}
}

func (d DungeonState) clone() DungeonState {
	var drops []DropRecord
	if d.Drops != nil {
		drops = make([]DropRecord, len(d.Drops))
		copy(drops, d.Drops)
	}
	return DungeonState{
		Capacity:     d.Capacity,
		Participants: cloneIDs(d.Participants),
		Roles:        cloneRoleMap(d.Roles),
		Drops:        drops,
	}
}

// SlotOf reports where u holds a siege slot, if anywhere.
func (s *SiegeState) SlotOf(u string) (role types.JobClass, waitlisted bool, ok bool) {
	for _, r := range types.ValidJobClasses {
		if slices.Contains(s.Principals[r], u) {
			return r, false, true
		}
		if slices.Contains(s.Waitlist[r], u) {
			return r, true, true
		}
	}
	return "", false, false
}

// IsAttending reports whether u has declared attendance.
func (s *SiegeState) IsAttending(u string) bool {
	return slices.Contains(s.Attending, u)
}

// IsParticipant reports whether u is in the party.
func (d *DungeonState) IsParticipant(u string) bool {
	return slices.Contains(d.Participants, u)
}

// RoleOf returns the role u is tagged with, if any.
func (d *DungeonState) RoleOf(u string) (types.JobClass, bool) {
	for _, r := range types.ValidJobClasses {
		if slices.Contains(d.Roles[r], u) {
			return r, true
		}
	}
	return "", false
}

// Full reports whether the party has no free place.
func (d *DungeonState) Full() bool {
	return len(d.Participants) >= d.Capacity
}

// RecentDrops returns at most n of the newest drop records, oldest first.
func (d *DungeonState) RecentDrops(n int) []DropRecord {
	if n <= 0 || len(d.Drops) == 0 {
		return []DropRecord{}
	}
	start := max(len(d.Drops)-n, 0)
	out := make([]DropRecord, len(d.Drops)-start)
	copy(out, d.Drops[start:])
	return out
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func cloneRoleMap(m map[types.JobClass][]string) map[types.JobClass][]string {
	out := make(map[types.JobClass][]string, len(m))
	for role, ids := range m {
		out[role] = cloneIDs(ids)
	}
	return out
}

// without returns ids minus the first occurrence of u and whether u was found.
func without(ids []string, u string) ([]string, bool) {
	i := slices.Index(ids, u)
	if i < 0 {
		return ids, false
	}
	return slices.Delete(ids, i, i+1), true
}
