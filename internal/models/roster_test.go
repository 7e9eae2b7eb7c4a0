package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

func TestNewRosterResponseSiege(t *testing.T) {
	r := roster.NewSiege("s1", "creator", map[types.JobClass]int{
		types.JobRanger: 1,
		types.JobBlade:  1,
	}, roster.Details{ChannelID: "c1", Title: "Siege", Tier: "80"})

	var err error
	for _, in := range []roster.Intent{
		roster.SelectRole{UserID: "a", Role: types.JobBlade},
		roster.SelectRole{UserID: "b", Role: types.JobBlade},
		roster.SetAttendance{UserID: "c", Attending: false},
	} {
		r, _, err = roster.Apply(r, in)
		require.NoError(t, err)
	}

	resp := NewRosterResponse(r)
	assert.Equal(t, "siege", resp.Kind)
	assert.Equal(t, "80", resp.Tier)
	assert.Nil(t, resp.StartsAt)
	assert.Nil(t, resp.Dungeon)
	require.NotNil(t, resp.Siege)

	require.Len(t, resp.Siege.Roles, 2)
	assert.Equal(t, types.JobBlade, resp.Siege.Roles[0].Role, "job class order")
	assert.Equal(t, []string{"a"}, resp.Siege.Roles[0].Principals)
	assert.Equal(t, []string{"b"}, resp.Siege.Roles[0].Waitlist)
	assert.Equal(t, types.JobRanger, resp.Siege.Roles[1].Role)
	assert.NotNil(t, resp.Siege.Roles[1].Principals)
	assert.Equal(t, []string{"c"}, resp.Siege.Declined)
}

func TestNewRosterResponseDungeon(t *testing.T) {
	starts := time.Date(2026, 10, 20, 13, 0, 0, 0, time.UTC)
	r := roster.NewDungeonRun("d1", "leader", 24, roster.Details{ChannelID: "c1", Title: "Crypt", StartsAt: starts})

	var err error
	r, _, err = roster.Apply(r, roster.SelectRole{UserID: "leader", Role: types.JobKnight})
	require.NoError(t, err)
	for i := range 12 {
		r, _, err = roster.Apply(r, roster.RecordDrop{
			UserID: "leader",
			Text:   fmt.Sprintf("item %d", i),
			DropID: fmt.Sprintf("drop-%d", i),
			At:     starts.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	resp := NewRosterResponse(r)
	require.NotNil(t, resp.Dungeon)
	require.NotNil(t, resp.StartsAt)
	assert.True(t, starts.Equal(*resp.StartsAt))
	assert.Equal(t, 24, resp.Dungeon.PartySize)
	assert.Equal(t, []DungeonRoleView{{Role: types.JobKnight, Members: []string{"leader"}}}, resp.Dungeon.Roles)
	assert.Equal(t, 12, resp.Dungeon.TotalDrops)
	require.Len(t, resp.Dungeon.RecentDrops, RecentDropsShown)
	assert.Equal(t, "item 2", resp.Dungeon.RecentDrops[0].Text)
	assert.Equal(t, "item 11", resp.Dungeon.RecentDrops[RecentDropsShown-1].Text)
}
