// internal/socket/handler.go
package socket

import (
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Authenticator turns a bearer token into a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// Handler handles WebSocket connections
type Handler struct {
	Hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. An empty allowedOrigins list
// accepts any origin.
func NewHandler(hub *Hub, auth Authenticator, allowedOrigins []string) *Handler {
	return &Handler{
		Hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade requests. The token is read from
// the query string because browser WebSocket clients cannot set headers.
// Clients may pass ?roster=<id> and ?channel=<id> to subscribe on connect.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		log.Println("[WebSocket] No token provided")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	userID, err := h.auth.Authenticate(tokenString)
	if err != nil {
		log.Printf("[WebSocket] Token rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade error: %v", err)
		return
	}

	log.Printf("[WebSocket] ✅ Client connected: userID=%s", userID)

	client := NewClient(h.Hub, userID, conn)

	select {
	case h.Hub.register <- client:
	case <-h.Hub.done:
		conn.Close()
		return
	}

	h.Hub.JoinRoom(client, RoomUser+userID)
	if id := c.Query("roster"); id != "" {
		h.Hub.JoinRoom(client, RoomRoster+id)
	}
	if id := c.Query("channel"); id != "" {
		h.Hub.JoinRoom(client, RoomChannel+id)
	}

	go client.WritePump()
	go client.ReadPump()
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[string]bool),
		lastPing: time.Now(),
	}
}
