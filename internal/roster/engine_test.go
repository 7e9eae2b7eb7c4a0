package roster

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

func TestApplyDoesNotMutateInput(t *testing.T) {
	r, _ := mustApply(t, newTestSiege(map[types.JobClass]int{types.JobBlade: 1}),
		SelectRole{UserID: "u1", Role: types.JobBlade},
		SelectRole{UserID: "u2", Role: types.JobBlade},
	)
	snapshot := r.Clone()

	_, _, err := Apply(r, SetAttendance{UserID: "u1", Attending: false})
	require.NoError(t, err)
	assert.Equal(t, snapshot, r)
}

func TestClose(t *testing.T) {
	for _, r := range []Roster{newTestSiege(map[types.JobClass]int{types.JobBlade: 1}), newTestDungeon(8)} {
		t.Run(string(r.Kind), func(t *testing.T) {
			_, _, err := Apply(r, Close{UserID: "someone"})
			require.ErrorIs(t, err, ErrUnauthorized)

			closed, out, err := Apply(r, Close{UserID: r.CreatorID})
			require.NoError(t, err)
			assert.Equal(t, ResultClosed, out.Result)
			assert.False(t, closed.Active)

			again, out, err := Apply(closed, Close{UserID: r.CreatorID})
			require.NoError(t, err)
			assert.True(t, out.NoOp())
			assert.Equal(t, closed, again)
		})
	}
}

func TestExpire(t *testing.T) {
	r := newTestDungeon(8)
	expired, out, err := Apply(r, Expire{})
	require.NoError(t, err)
	assert.Equal(t, ResultExpired, out.Result)
	assert.False(t, expired.Active)

	_, out, err = Apply(expired, Expire{})
	require.NoError(t, err)
	assert.True(t, out.NoOp())
}

func TestInactiveRosterRejectsMutations(t *testing.T) {
	siege, _, err := Apply(newTestSiege(map[types.JobClass]int{types.JobBlade: 1}), Expire{})
	require.NoError(t, err)
	dungeon, _, err := Apply(newTestDungeon(8), Close{UserID: "leader"})
	require.NoError(t, err)

	_, _, err = Apply(siege, SelectRole{UserID: "u1", Role: types.JobBlade})
	require.ErrorIs(t, err, ErrInactive)
	_, _, err = Apply(siege, SetAttendance{UserID: "u1", Attending: true})
	require.ErrorIs(t, err, ErrInactive)
	_, _, err = Apply(dungeon, Join{UserID: "u1"})
	require.ErrorIs(t, err, ErrInactive)
	_, _, err = Apply(dungeon, Kick{UserID: "leader", TargetID: "u1"})
	require.ErrorIs(t, err, ErrInactive)
}

func TestApplyRejectsMalformedIntents(t *testing.T) {
	r := newTestDungeon(8)
	_, _, err := Apply(r, nil)
	require.ErrorIs(t, err, ErrInvalidIntent)
	_, _, err = Apply(r, Join{})
	require.ErrorIs(t, err, ErrInvalidIntent)
	_, _, err = Apply(r, Close{})
	require.ErrorIs(t, err, ErrInvalidIntent)

	broken := r
	broken.Kind = "raid"
	_, _, err = Apply(broken, Join{UserID: "u1"})
	require.ErrorIs(t, err, ErrInvalidIntent)
}

func TestMutating(t *testing.T) {
	assert.False(t, Mutating(Close{UserID: "u"}))
	assert.False(t, Mutating(Expire{}))
	assert.True(t, Mutating(Join{UserID: "u"}))
	assert.True(t, Mutating(SelectRole{UserID: "u", Role: types.JobBlade}))
}

// randomSiegeIntent draws from a small user and role pool so collisions,
// switches and promotions happen often.
func randomSiegeIntent(rng *rand.Rand, roles []types.JobClass) Intent {
	u := fmt.Sprintf("u%d", rng.IntN(6))
	if rng.IntN(4) == 0 {
		return SetAttendance{UserID: u, Attending: rng.IntN(2) == 0}
	}
	return SelectRole{UserID: u, Role: roles[rng.IntN(len(roles))]}
}

func TestSiegeProperties(t *testing.T) {
	roles := []types.JobClass{types.JobBlade, types.JobKnight, types.JobJester}
	caps := map[types.JobClass]int{types.JobBlade: 2, types.JobKnight: 1, types.JobJester: 0}

	for seed := range uint64(200) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		r := newTestSiege(caps)

		for step := range 40 {
			in := randomSiegeIntent(rng, roles)
			prev := r
			next, out, err := Apply(r, in)
			require.NoError(t, err, "seed %d step %d", seed, step)

			// Role exclusivity, capacity and attendance are checked by Validate.
			require.NoError(t, next.Validate(), "seed %d step %d: %s", seed, step, in.Name())

			// Declining clears every slot.
			if a, ok := in.(SetAttendance); ok && !a.Attending {
				_, _, held := next.Siege.SlotOf(a.UserID)
				require.False(t, held, "seed %d step %d", seed, step)
			}

			// A vacated principal slot is refilled from the waitlist head.
			for _, role := range roles {
				before := prev.Siege.Principals[role]
				after := next.Siege.Principals[role]
				waiting := prev.Siege.Waitlist[role]
				vacated := slices.ContainsFunc(before, func(u string) bool { return !slices.Contains(after, u) })
				if vacated && len(waiting) > 0 && waiting[0] != in.Actor() {
					require.Len(t, after, len(before), "seed %d step %d role %s", seed, step, role)
					require.Contains(t, after, waiting[0])
					require.Contains(t, out.Promoted, Promotion{Role: role, UserID: waiting[0]})
				}
			}

			r = next
		}
	}
}

func TestDungeonCapacityProperty(t *testing.T) {
	roles := []types.JobClass{types.JobBlade, types.JobRanger}
	for seed := range uint64(100) {
		rng := rand.New(rand.NewPCG(seed, seed+1))
		r := newTestDungeon(3)

		for step := range 50 {
			u := fmt.Sprintf("u%d", rng.IntN(6))
			var in Intent
			switch rng.IntN(4) {
			case 0:
				in = Join{UserID: u}
			case 1:
				in = ToggleJoin{UserID: u}
			case 2:
				in = Leave{UserID: u}
			default:
				in = SelectRole{UserID: u, Role: roles[rng.IntN(len(roles))]}
			}

			wasFull := r.Dungeon.Full()
			member := r.Dungeon.IsParticipant(u)
			next, _, err := Apply(r, in)

			// Full exactly when the party is at capacity and u is outside it.
			if _, joins := in.(Join); joins {
				if wasFull && !member {
					require.ErrorIs(t, err, ErrFull, "seed %d step %d", seed, step)
				} else {
					require.NoError(t, err, "seed %d step %d", seed, step)
				}
			}
			if err != nil {
				require.ErrorIs(t, err, ErrFull)
				continue
			}
			require.NoError(t, next.Validate(), "seed %d step %d", seed, step)
			r = next
		}
	}
}
