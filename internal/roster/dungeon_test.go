package roster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

func newTestDungeon(capacity int) Roster {
	return NewDungeonRun("msg-2", "leader", capacity, Details{ChannelID: "chan-1", Title: "Crypt"})
}

func TestDungeonJoinLeave(t *testing.T) {
	r := newTestDungeon(2)

	r, out := mustApply(t, r, Join{UserID: "u1"})
	assert.Equal(t, ResultJoined, out.Result)

	_, out = mustApply(t, r, Join{UserID: "u1"})
	assert.True(t, out.NoOp(), "joining twice is a noop")

	r, _ = mustApply(t, r, Join{UserID: "u2"})
	_, _, err := Apply(r, Join{UserID: "u3"})
	require.ErrorIs(t, err, ErrFull)

	// A member already in a full party is not rejected.
	_, out, err = Apply(r, Join{UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, out.NoOp())

	r, out = mustApply(t, r, Leave{UserID: "u1"})
	assert.Equal(t, ResultLeft, out.Result)
	assert.Equal(t, []string{"u2"}, r.Dungeon.Participants)

	_, out = mustApply(t, r, Leave{UserID: "u1"})
	assert.True(t, out.NoOp())
}

func TestDungeonToggleJoin(t *testing.T) {
	r := newTestDungeon(8)
	r, out := mustApply(t, r, ToggleJoin{UserID: "u1"})
	assert.Equal(t, ResultJoined, out.Result)
	r, out = mustApply(t, r, ToggleJoin{UserID: "u1"})
	assert.Equal(t, ResultLeft, out.Result)
	assert.Empty(t, r.Dungeon.Participants)
}

func TestDungeonSelectRole(t *testing.T) {
	t.Run("auto joins and tags", func(t *testing.T) {
		r, out := mustApply(t, newTestDungeon(8), SelectRole{UserID: "u1", Role: types.JobRingmaster})
		assert.Equal(t, ResultAdded, out.Result)
		assert.True(t, out.AutoJoined)
		assert.Equal(t, []string{"u1"}, r.Dungeon.Participants)
		role, ok := r.Dungeon.RoleOf("u1")
		require.True(t, ok)
		assert.Equal(t, types.JobRingmaster, role)
	})

	t.Run("same role toggles the tag off", func(t *testing.T) {
		r, _ := mustApply(t, newTestDungeon(8), SelectRole{UserID: "u1", Role: types.JobRingmaster})
		r, out := mustApply(t, r, SelectRole{UserID: "u1", Role: types.JobRingmaster})
		assert.Equal(t, ResultRemoved, out.Result)
		_, ok := r.Dungeon.RoleOf("u1")
		assert.False(t, ok)
		assert.True(t, r.Dungeon.IsParticipant("u1"), "untagging keeps membership")
	})

	t.Run("switch keeps a single tag", func(t *testing.T) {
		r, _ := mustApply(t, newTestDungeon(8),
			SelectRole{UserID: "u1", Role: types.JobRingmaster},
		)
		r, out := mustApply(t, r, SelectRole{UserID: "u1", Role: types.JobKnight})
		assert.Equal(t, types.JobRingmaster, out.FromRole)
		assert.False(t, out.AutoJoined)
		assert.Empty(t, r.Dungeon.Roles[types.JobRingmaster])
		assert.Equal(t, []string{"u1"}, r.Dungeon.Roles[types.JobKnight])
	})

	t.Run("full party aborts the role change", func(t *testing.T) {
		r, _ := mustApply(t, newTestDungeon(1), Join{UserID: "u1"})
		next, _, err := Apply(r, SelectRole{UserID: "u2", Role: types.JobBlade})
		require.ErrorIs(t, err, ErrFull)
		assert.Equal(t, r, next)
		assert.Empty(t, r.Dungeon.Roles[types.JobBlade])
	})

	t.Run("leave clears the tag", func(t *testing.T) {
		r, _ := mustApply(t, newTestDungeon(8), SelectRole{UserID: "u1", Role: types.JobBlade})
		r, out := mustApply(t, r, Leave{UserID: "u1"})
		assert.Equal(t, types.JobBlade, out.FromRole)
		assert.Empty(t, r.Dungeon.Roles[types.JobBlade])
	})
}

func TestDungeonRecordDrop(t *testing.T) {
	at := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	r, _ := mustApply(t, newTestDungeon(8), Join{UserID: "u1"})

	r, out := mustApply(t, r, RecordDrop{UserID: "u1", Text: "  Ancient Sword  ", DropID: "d1", At: at})
	assert.Equal(t, ResultDropRecorded, out.Result)
	require.NotNil(t, out.Drop)
	assert.Equal(t, DropRecord{ID: "d1", RecordedBy: "u1", Text: "Ancient Sword", RecordedAt: at}, *out.Drop)
	assert.Len(t, r.Dungeon.Drops, 1)

	_, _, err := Apply(r, RecordDrop{UserID: "u2", Text: "Shield", DropID: "d2", At: at})
	require.ErrorIs(t, err, ErrNotParticipant)

	_, _, err = Apply(r, RecordDrop{UserID: "u1", Text: "   ", DropID: "d3", At: at})
	require.ErrorIs(t, err, ErrInvalidIntent)

	_, _, err = Apply(r, RecordDrop{UserID: "u1", Text: strings.Repeat("x", MaxDropTextLength+1), DropID: "d4", At: at})
	require.ErrorIs(t, err, ErrInvalidIntent)

	_, _, err = Apply(r, RecordDrop{UserID: "u1", Text: "Shield", At: at})
	require.ErrorIs(t, err, ErrInvalidIntent)
}

func TestDungeonRecentDrops(t *testing.T) {
	d := newTestDungeon(8).Dungeon
	for i := range 12 {
		d.Drops = append(d.Drops, DropRecord{ID: string(rune('a' + i))})
	}
	recent := d.RecentDrops(10)
	require.Len(t, recent, 10)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "l", recent[9].ID)
	assert.Empty(t, d.RecentDrops(0))
}

func TestDungeonKick(t *testing.T) {
	r, _ := mustApply(t, newTestDungeon(8),
		Join{UserID: "leader"},
		SelectRole{UserID: "u1", Role: types.JobPsykeeper},
	)

	_, _, err := Apply(r, Kick{UserID: "u1", TargetID: "leader"})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = Apply(r, Kick{UserID: "leader", TargetID: "leader"})
	require.ErrorIs(t, err, ErrSelfKick)

	next, out := mustApply(t, r, Kick{UserID: "leader", TargetID: "u1"})
	assert.Equal(t, ResultKicked, out.Result)
	assert.Equal(t, "u1", out.UserID)
	assert.Equal(t, types.JobPsykeeper, out.FromRole)
	assert.Equal(t, []string{"leader"}, next.Dungeon.Participants)
	assert.Empty(t, next.Dungeon.Roles[types.JobPsykeeper])

	_, out = mustApply(t, next, Kick{UserID: "leader", TargetID: "u1"})
	assert.True(t, out.NoOp())
}

func TestDungeonRejectsSiegeIntents(t *testing.T) {
	_, _, err := Apply(newTestDungeon(8), SetAttendance{UserID: "u1", Attending: true})
	require.ErrorIs(t, err, ErrInvalidIntent)
}
