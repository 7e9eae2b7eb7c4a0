package socket

import (
	"log"

	"github.com/Marga-Ghale/ora-roster-backend/internal/models"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
)

// Broadcaster pushes roster changes to the rooms watching them.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// RosterPayload is the body of every roster message.
type RosterPayload struct {
	Roster  models.RosterResponse `json:"roster"`
	Outcome *roster.Outcome       `json:"outcome,omitempty"`
}

// RosterCreated announces a new roster to its channel.
func (b *Broadcaster) RosterCreated(r roster.Roster) {
	room := RoomChannel + r.Details.ChannelID
	log.Printf("📡 RosterCreated: room=%s, rosterId=%s", room, r.ID)
	b.hub.SendToRoom(room, MessageRosterCreated, RosterPayload{Roster: models.NewRosterResponse(r)}, "")
}

// RosterUpdated sends the re-rendered roster to its watchers and channel.
func (b *Broadcaster) RosterUpdated(r roster.Roster, out roster.Outcome) {
	msgType := MessageRosterUpdated
	if out.Result == roster.ResultClosed || out.Result == roster.ResultExpired {
		msgType = MessageRosterClosed
	}

	payload := RosterPayload{Roster: models.NewRosterResponse(r), Outcome: &out}
	log.Printf("📡 %s: rosterId=%s, result=%s, version=%d", msgType, r.ID, out.Result, r.Version)

	b.hub.SendToRoom(RoomRoster+r.ID, msgType, payload, "")
	if r.Details.ChannelID != "" {
		b.hub.SendToRoom(RoomChannel+r.Details.ChannelID, msgType, payload, "")
	}
}

// SendNotice delivers a notification to every connection of one user.
func (b *Broadcaster) SendNotice(userID string, notice interface{}) {
	b.hub.SendToRoom(RoomUser+userID, MessageNotification, notice, "")
}
