// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-roster-backend/internal/metrics"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Roster messages
	MessageRosterCreated MessageType = "roster_created"
	MessageRosterUpdated MessageType = "roster_updated"
	MessageRosterClosed  MessageType = "roster_closed"

	// Direct notices to one member
	MessageNotification MessageType = "notification"

	// System messages
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
	MessageAck  MessageType = "ack"
)

// Room prefixes a client may subscribe to
const (
	RoomRoster  = "roster:"
	RoomChannel = "channel:"
	RoomUser    = "user:"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
	Rooms    map[string]bool // roster:<id>, channel:<id>, user:<id>
	mu       sync.Mutex
	lastPing time.Time
}

// Hub maintains the set of active clients and fans roster changes out to
// the rooms watching them.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients indexed by room for broadcasting
	roomClients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Broadcast to specific room
	roomBroadcast chan *RoomMessage

	done    chan struct{}
	stopped sync.Once
	metrics metrics.Collector

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude string // User ID to exclude from broadcast
}

// NewHub creates a new Hub. m may be nil.
func NewHub(m metrics.Collector) *Hub {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Hub{
		clients:       make(map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		done:          make(chan struct{}),
		metrics:       m,
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	log.Println("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case <-pingTicker.C:
			h.pingClients()

		case <-h.done:
			h.closeAll()
			log.Println("[Hub] WebSocket hub stopped")
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopped.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.metrics.SetWebsocketClients(len(h.clients))

	log.Printf("[Hub] ✅ Client registered: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		for room := range client.Rooms {
			if clients, ok := h.roomClients[room]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.roomClients, room)
				}
			}
		}

		close(client.Send)
		h.metrics.SetWebsocketClients(len(h.clients))
		log.Printf("[Hub] ❌ Client disconnected: user=%s, id=%s, total_clients=%d",
			client.UserID, client.ID, len(h.clients))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
	h.roomClients = make(map[string]map[*Client]bool)
	h.metrics.SetWebsocketClients(0)
}

// drop schedules a slow client for removal without blocking the hub loop.
func (h *Hub) drop(c *Client) {
	go func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.roomClients[rm.Room]
	if !ok {
		return
	}

	sentCount := 0
	for client := range clients {
		if rm.Exclude != "" && client.UserID == rm.Exclude {
			continue
		}
		select {
		case client.Send <- rm.Message:
			sentCount++
		default:
			h.drop(client)
		}
	}
	log.Printf("[Hub] Broadcast to room %s: sent to %d clients", rm.Room, sentCount)
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.drop(client)
		}
	}
}

// ============================================
// Public Methods for Room Management
// ============================================

// ValidRoom reports whether room names something clients may watch.
func ValidRoom(room string) bool {
	for _, prefix := range []string{RoomRoster, RoomChannel, RoomUser} {
		if id, ok := strings.CutPrefix(room, prefix); ok && id != "" {
			return true
		}
	}
	return false
}

// JoinRoom adds a client to a room
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true

	log.Printf("[Hub] 👥 Client joined room: user=%s, room=%s", client.UserID, room)
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}

	log.Printf("[Hub] 👋 Client left room: user=%s, room=%s", client.UserID, room)
}

// ============================================
// Public Methods for Sending Messages
// ============================================

// SendToRoom broadcasts a message to all clients in a room. It is dropped
// once the hub has stopped.
func (h *Hub) SendToRoom(room string, msgType MessageType, payload interface{}, excludeUserID string) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[Hub] Error marshaling message: %v", err)
		return
	}

	select {
	case h.roomBroadcast <- &RoomMessage{Room: room, Message: data, Exclude: excludeUserID}:
	case <-h.done:
	}
}

// ============================================
// Query Methods
// ============================================

// GetRoomClients returns the number of clients in a room
func (h *Hub) GetRoomClients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.roomClients[room]; ok {
		return len(clients)
	}
	return 0
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
