package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-roster-backend/internal/models"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// ErrUnknownAction is returned for a custom id outside the button grammar.
var ErrUnknownAction = errors.New("unknown action")

// Action is a parsed UI interaction. Exactly one of Intent or Manage is set.
type Action struct {
	Kind   types.RosterKind
	Intent roster.Intent
	// Manage asks for the list of members the leader may kick.
	Manage bool
}

// ParseAction maps a component interaction onto an intent. Custom ids are
// colon separated: a roster kind prefix, a verb and an optional argument.
//
//	siege:attend:yes|no   siege:job:<class>   siege:close
//	dungeon:join          dungeon:job:<class> dungeon:itemdrop
//	dungeon:kick          dungeon:manage      dungeon:close
func ParseAction(actorID string, req models.ActionRequest) (Action, error) {
	parts := strings.Split(strings.TrimSpace(req.CustomID), ":")
	if len(parts) < 2 {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.CustomID)
	}
	prefix, verb, arg := parts[0], parts[1], ""
	if len(parts) == 3 {
		arg = parts[2]
	} else if len(parts) > 3 {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.CustomID)
	}

	switch prefix {
	case "siege":
		return parseSiegeAction(actorID, verb, arg, req)
	case "dungeon":
		return parseDungeonAction(actorID, verb, arg, req)
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.CustomID)
}

func parseSiegeAction(actorID, verb, arg string, req models.ActionRequest) (Action, error) {
	a := Action{Kind: types.KindSiege}
	switch {
	case verb == "attend" && arg == "yes":
		a.Intent = roster.SetAttendance{UserID: actorID, Attending: true}
	case verb == "attend" && arg == "no":
		a.Intent = roster.SetAttendance{UserID: actorID, Attending: false}
	case verb == "job":
		role, ok := types.ParseJobClass(arg)
		if !ok {
			return Action{}, fmt.Errorf("%w: unknown job class %q", ErrUnknownAction, arg)
		}
		a.Intent = roster.SelectRole{UserID: actorID, Role: role}
	case verb == "close" && arg == "":
		a.Intent = roster.Close{UserID: actorID}
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.CustomID)
	}
	return a, nil
}

func parseDungeonAction(actorID, verb, arg string, req models.ActionRequest) (Action, error) {
	a := Action{Kind: types.KindDungeonRun}
	if verb != "job" && arg != "" {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.CustomID)
	}

	switch verb {
	case "join":
		a.Intent = roster.ToggleJoin{UserID: actorID}
	case "job":
		role, ok := types.ParseJobClass(arg)
		if !ok {
			return Action{}, fmt.Errorf("%w: unknown job class %q", ErrUnknownAction, arg)
		}
		a.Intent = roster.SelectRole{UserID: actorID, Role: role}
	case "itemdrop":
		a.Intent = roster.RecordDrop{UserID: actorID, Text: req.Text}
	case "kick":
		if len(req.Values) == 0 || req.Values[0] == "" {
			return Action{}, fmt.Errorf("%w: kick needs a selected member", ErrUnknownAction)
		}
		a.Intent = roster.Kick{UserID: actorID, TargetID: req.Values[0]}
	case "manage":
		a.Manage = true
	case "close":
		a.Intent = roster.Close{UserID: actorID}
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.CustomID)
	}
	return a, nil
}

func kindNoun(kind types.RosterKind) string {
	if kind == types.KindSiege {
		return "siege event"
	}
	return "dungeon run"
}

// outcomeMessage is the short confirmation shown to the acting member.
func outcomeMessage(kind types.RosterKind, out roster.Outcome) string {
	switch out.Result {
	case roster.ResultAttending:
		return "You are attending the siege!"
	case roster.ResultDeclined:
		return "You will not attend the siege."
	case roster.ResultAdded:
		if kind == types.KindDungeonRun && out.AutoJoined {
			return fmt.Sprintf("You have joined the dungeon run as %s!", out.Role)
		}
		return fmt.Sprintf("You have joined as %s!", out.Role)
	case roster.ResultMovedToWaitlist:
		return fmt.Sprintf("All %s slots are taken. You have been added to the waitlist.", out.Role)
	case roster.ResultRemoved:
		return fmt.Sprintf("You have left the %s position.", out.Role)
	case roster.ResultJoined:
		return "You have joined the dungeon run!"
	case roster.ResultLeft:
		return "You have left the dungeon run."
	case roster.ResultDropRecorded:
		return "Item drop recorded successfully!"
	case roster.ResultKicked:
		return fmt.Sprintf("Successfully kicked %s from the party.", out.UserID)
	case roster.ResultClosed, roster.ResultExpired:
		return fmt.Sprintf("This %s has been closed.", kindNoun(kind))
	}
	return "No changes were made."
}
