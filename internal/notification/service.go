package notification

import (
	"fmt"
	"log"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/socket"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// Notification types
const (
	TypeWaitlistPromoted = "WAITLIST_PROMOTED"
	TypePartyKicked      = "PARTY_KICKED"
	TypeRosterClosed     = "ROSTER_CLOSED"
	TypeRosterExpired    = "ROSTER_EXPIRED"
)

// Notice is a direct message to a member affected by someone else's action.
type Notice struct {
	Type     string         `json:"type"`
	UserID   string         `json:"userId"`
	RosterID string         `json:"rosterId"`
	Role     types.JobClass `json:"role,omitempty"`
	Message  string         `json:"message"`
}

// Broadcaster pushes roster views to watchers and notices to single users.
type Broadcaster interface {
	RosterCreated(r roster.Roster)
	RosterUpdated(r roster.Roster, out roster.Outcome)
	SendNotice(userID string, notice interface{})
}

var _ Broadcaster = (*socket.Broadcaster)(nil)

// Service publishes roster changes to watchers and notifies the members a
// change happened to.
type Service struct {
	broadcaster Broadcaster
}

func NewService(b Broadcaster) *Service {
	return &Service{broadcaster: b}
}

func (s *Service) RosterCreated(r roster.Roster) {
	s.broadcaster.RosterCreated(r)
}

func (s *Service) RosterUpdated(r roster.Roster, out roster.Outcome) {
	s.broadcaster.RosterUpdated(r, out)

	notices := Notices(r, out)
	for _, n := range notices {
		s.broadcaster.SendNotice(n.UserID, n)
	}
	if len(notices) > 0 {
		log.Printf("[Notification] 🔔 Sent %d notice(s) for roster %s (%s)", len(notices), r.ID, out.Result)
	}
}

// Notices lists the members to tell about out, other than the one who
// caused it.
func Notices(r roster.Roster, out roster.Outcome) []Notice {
	title := r.Details.Title
	if title == "" {
		title = "the event"
	}

	var notices []Notice
	for _, p := range out.Promoted {
		notices = append(notices, Notice{
			Type:     TypeWaitlistPromoted,
			UserID:   p.UserID,
			RosterID: r.ID,
			Role:     p.Role,
			Message:  fmt.Sprintf("A %s slot opened up for %s. You have been moved off the waitlist!", p.Role, title),
		})
	}

	switch out.Result {
	case roster.ResultKicked:
		notices = append(notices, Notice{
			Type:     TypePartyKicked,
			UserID:   out.UserID,
			RosterID: r.ID,
			Message:  fmt.Sprintf("You have been removed from the party for %s.", title),
		})

	case roster.ResultClosed, roster.ResultExpired:
		typ, verb := TypeRosterClosed, "closed by its creator"
		if out.Result == roster.ResultExpired {
			typ, verb = TypeRosterExpired, "ended"
		}
		for _, u := range members(r) {
			if u == r.CreatorID {
				continue
			}
			notices = append(notices, Notice{
				Type:     typ,
				UserID:   u,
				RosterID: r.ID,
				Message:  fmt.Sprintf("%s has %s.", title, verb),
			})
		}
	}
	return notices
}

// members are the users holding a place on the roster.
func members(r roster.Roster) []string {
	switch {
	case r.Siege != nil:
		return r.Siege.Attending
	case r.Dungeon != nil:
		return r.Dungeon.Participants
	}
	return nil
}
