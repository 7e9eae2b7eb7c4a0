package socket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{
		ID:     "client-" + userID,
		UserID: userID,
		Hub:    hub,
		Send:   make(chan []byte, 16),
		Rooms:  make(map[string]bool),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

// register hands c to the hub and waits until Run has recorded it.
func register(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	want := hub.GetConnectedClientsCount() + 1
	hub.register <- c
	require.Eventually(t, func() bool {
		return hub.GetConnectedClientsCount() == want
	}, time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubRoomBroadcast(t *testing.T) {
	hub := startHub(t)

	watcher := newTestClient(hub, "u1")
	other := newTestClient(hub, "u2")
	register(t, hub, watcher)
	register(t, hub, other)
	hub.JoinRoom(watcher, RoomRoster+"r1")
	hub.JoinRoom(other, RoomRoster+"r2")

	assert.Equal(t, 2, hub.GetConnectedClientsCount())
	assert.Equal(t, 1, hub.GetRoomClients(RoomRoster+"r1"))

	hub.SendToRoom(RoomRoster+"r1", MessageRosterUpdated, map[string]string{"id": "r1"}, "")

	msg := receive(t, watcher)
	assert.Equal(t, MessageRosterUpdated, msg.Type)
	assert.Empty(t, other.Send)

	hub.LeaveRoom(watcher, RoomRoster+"r1")
	assert.Zero(t, hub.GetRoomClients(RoomRoster+"r1"))
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)

	c := newTestClient(hub, "u1")
	register(t, hub, c)
	hub.JoinRoom(c, RoomChannel+"c1")
	hub.unregister <- c

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.GetConnectedClientsCount())
	assert.Zero(t, hub.GetRoomClients(RoomChannel+"c1"))
}

func TestBroadcasterRosterUpdated(t *testing.T) {
	hub := startHub(t)
	b := NewBroadcaster(hub)

	byRoster := newTestClient(hub, "u1")
	byChannel := newTestClient(hub, "u2")
	register(t, hub, byRoster)
	register(t, hub, byChannel)
	hub.JoinRoom(byRoster, RoomRoster+"d1")
	hub.JoinRoom(byChannel, RoomChannel+"c1")

	r := roster.NewDungeonRun("d1", "leader", 8, roster.Details{ChannelID: "c1", Title: "Crypt"})
	next, out, err := roster.Apply(r, roster.SelectRole{UserID: "u1", Role: types.JobJester})
	require.NoError(t, err)

	b.RosterUpdated(next, out)

	for _, c := range []*Client{byRoster, byChannel} {
		msg := receive(t, c)
		assert.Equal(t, MessageRosterUpdated, msg.Type)
		payload, ok := msg.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "d1", payload["roster"].(map[string]interface{})["id"])
		assert.Equal(t, "added", payload["outcome"].(map[string]interface{})["result"])
	}

	closed, out, err := roster.Apply(next, roster.Close{UserID: "leader"})
	require.NoError(t, err)
	b.RosterUpdated(closed, out)
	assert.Equal(t, MessageRosterClosed, receive(t, byRoster).Type)
}

func TestValidRoom(t *testing.T) {
	assert.True(t, ValidRoom("roster:abc"))
	assert.True(t, ValidRoom("channel:123"))
	assert.True(t, ValidRoom("user:u1"))
	assert.False(t, ValidRoom("roster:"))
	assert.False(t, ValidRoom("workspace:1"))
	assert.False(t, ValidRoom(""))
}

func TestHubStop(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	c := newTestClient(hub, "u1")
	register(t, hub, c)
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-c.Send
	assert.False(t, open)

	// Sending after stop must not block.
	hub.SendToRoom(RoomRoster+"r1", MessageRosterUpdated, nil, "")
}
