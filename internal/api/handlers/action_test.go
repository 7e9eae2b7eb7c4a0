package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/models"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name string
		req  models.ActionRequest
		want roster.Intent
	}{
		{"attend", models.ActionRequest{CustomID: "siege:attend:yes"}, roster.SetAttendance{UserID: "u1", Attending: true}},
		{"decline", models.ActionRequest{CustomID: "siege:attend:no"}, roster.SetAttendance{UserID: "u1"}},
		{"siege job", models.ActionRequest{CustomID: "siege:job:blade"}, roster.SelectRole{UserID: "u1", Role: types.JobBlade}},
		{"siege close", models.ActionRequest{CustomID: "siege:close"}, roster.Close{UserID: "u1"}},
		{"dungeon join", models.ActionRequest{CustomID: "dungeon:join"}, roster.ToggleJoin{UserID: "u1"}},
		{"dungeon job", models.ActionRequest{CustomID: "dungeon:job:Jester"}, roster.SelectRole{UserID: "u1", Role: types.JobJester}},
		{"item drop", models.ActionRequest{CustomID: "dungeon:itemdrop", Text: "Ancient Blade"}, roster.RecordDrop{UserID: "u1", Text: "Ancient Blade"}},
		{"kick", models.ActionRequest{CustomID: "dungeon:kick", Values: []string{"u2"}}, roster.Kick{UserID: "u1", TargetID: "u2"}},
		{"dungeon close", models.ActionRequest{CustomID: "dungeon:close"}, roster.Close{UserID: "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAction("u1", tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Intent)
			assert.False(t, a.Manage)
		})
	}

	a, err := ParseAction("u1", models.ActionRequest{CustomID: "dungeon:manage"})
	require.NoError(t, err)
	assert.True(t, a.Manage)
	assert.Nil(t, a.Intent)
	assert.Equal(t, types.KindDungeonRun, a.Kind)
}

func TestParseActionRejects(t *testing.T) {
	for _, id := range []string{
		"",
		"siege",
		"siege:attend:maybe",
		"siege:job:chef",
		"siege:close:now",
		"dungeon:kick",
		"dungeon:join:extra",
		"raid:join",
		"dungeon:job:blade:extra",
	} {
		t.Run(id, func(t *testing.T) {
			_, err := ParseAction("u1", models.ActionRequest{CustomID: id})
			assert.ErrorIs(t, err, ErrUnknownAction)
		})
	}
}

func TestOutcomeMessage(t *testing.T) {
	assert.Equal(t, "You have joined as Blade!",
		outcomeMessage(types.KindSiege, roster.Outcome{Result: roster.ResultAdded, Role: types.JobBlade}))
	assert.Equal(t, "You have left the Jester position.",
		outcomeMessage(types.KindDungeonRun, roster.Outcome{Result: roster.ResultRemoved, Role: types.JobJester}))
	assert.Equal(t, "You have joined the dungeon run!",
		outcomeMessage(types.KindDungeonRun, roster.Outcome{Result: roster.ResultJoined}))
	assert.Equal(t, "Item drop recorded successfully!",
		outcomeMessage(types.KindDungeonRun, roster.Outcome{Result: roster.ResultDropRecorded}))
	assert.Equal(t, "This siege event has been closed.",
		outcomeMessage(types.KindSiege, roster.Outcome{Result: roster.ResultClosed}))
	assert.Equal(t, "No changes were made.",
		outcomeMessage(types.KindSiege, roster.Outcome{Result: roster.ResultNoOp}))
}

func TestActionError(t *testing.T) {
	tests := []struct {
		kind    types.RosterKind
		intent  string
		err     error
		status  int
		message string
	}{
		{types.KindSiege, "set_attendance", fmt.Errorf("%w: %w", service.ErrNotFound, service.ErrInactive), http.StatusGone, "This siege event is no longer active."},
		{types.KindDungeonRun, "join", service.ErrNotFound, http.StatusNotFound, "This dungeon run could not be found."},
		{types.KindSiege, "close", service.ErrUnauthorized, http.StatusForbidden, "Only the event creator can close this siege event."},
		{types.KindDungeonRun, "kick", service.ErrUnauthorized, http.StatusForbidden, "Only the party leader can manage party members."},
		{types.KindDungeonRun, "toggle_join", service.ErrFull, http.StatusConflict, "This dungeon run is full."},
		{types.KindDungeonRun, "record_drop", service.ErrNotParticipant, http.StatusForbidden, "Only party members can record item drops."},
		{types.KindDungeonRun, "join", fmt.Errorf("%w: boom", service.ErrStore), http.StatusServiceUnavailable, genericErrorMessage},
	}
	for _, tt := range tests {
		status, message := actionError(tt.kind, tt.intent, tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.message, message)
	}
}
