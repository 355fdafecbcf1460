package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"astraldraft-backend/shared/config"
)

// Security event types pushed to connected clients
const (
	EventConnected          = "connected"
	EventSessionRevoked     = "session_revoked"
	EventAllSessionsRevoked = "all_sessions_revoked"
	EventPasswordChanged    = "password_changed"
)

// SecurityEvent is pushed over WebSocket so other devices of the same user
// can react immediately (drop to login, show a notice) instead of waiting
// for their next failed API call.
type SecurityEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans security events out to each user's connected clients.
type EventHub struct {
	clients    map[uint][]*websocket.Conn
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	register   chan *clientConnection
	unregister chan *clientConnection
	events     chan userEvent
}

type clientConnection struct {
	UserID     uint
	Connection *websocket.Conn
}

type userEvent struct {
	UserID uint
	Event  SecurityEvent
}

var hub *EventHub
var hubOnce sync.Once

// GetEventHub returns the singleton security event hub
func GetEventHub() *EventHub {
	hubOnce.Do(func() {
		hub = &EventHub{
			clients: make(map[uint][]*websocket.Conn),
			upgrader: websocket.Upgrader{
				CheckOrigin: func(r *http.Request) bool {
					origin := r.Header.Get("Origin")
					if origin == config.GetConfig().FrontendURL {
						return true
					}

					log.Printf("🚫 WebSocket connection rejected from origin: %s", origin)
					return false
				},
			},
			register:   make(chan *clientConnection, 100),
			unregister: make(chan *clientConnection, 100),
			events:     make(chan userEvent, 1000),
		}
		go hub.run()
	})
	return hub
}

// run handles the hub event loop
func (h *EventHub) run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.events:
			h.deliver(event.UserID, event.Event)
		}
	}
}

func (h *EventHub) registerClient(client *clientConnection) {
	h.mutex.Lock()
	h.clients[client.UserID] = append(h.clients[client.UserID], client.Connection)
	total := len(h.clients[client.UserID])
	h.mutex.Unlock()

	log.Printf("🔌 WebSocket client connected: user=%d (connections: %d)", client.UserID, total)

	welcome := SecurityEvent{
		Type:      EventConnected,
		Message:   "Security event stream established",
		Timestamp: time.Now(),
	}
	if err := client.Connection.WriteJSON(welcome); err != nil {
		log.Printf("⚠️ Failed to send welcome event to user %d: %v", client.UserID, err)
	}
}

func (h *EventHub) unregisterClient(client *clientConnection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns := h.clients[client.UserID]
	for i, conn := range conns {
		if conn == client.Connection {
			h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
			conn.Close()
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
	}

	log.Printf("🔌 WebSocket client disconnected: user=%d", client.UserID)
}

func (h *EventHub) deliver(userID uint, event SecurityEvent) {
	h.mutex.RLock()
	conns := append([]*websocket.Conn(nil), h.clients[userID]...)
	h.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("⚠️ Failed to deliver %s event to user %d: %v", event.Type, userID, err)
		}
	}
}

// Publish queues an event for all of a user's connections. Non-blocking:
// if the hub is saturated the event is dropped rather than stalling the
// HTTP handler that raised it.
func (h *EventHub) Publish(userID uint, event SecurityEvent) {
	event.Timestamp = time.Now()
	select {
	case h.events <- userEvent{UserID: userID, Event: event}:
	default:
		log.Printf("⚠️ Event hub saturated, dropping %s event for user %d", event.Type, userID)
	}
}

// HandleConnection upgrades an authenticated request and parks the
// connection in the hub until the client disconnects.
func (h *EventHub) HandleConnection(c *gin.Context, userID uint) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed for user %d: %v", userID, err)
		return
	}

	client := &clientConnection{UserID: userID, Connection: conn}
	h.register <- client

	// Reader loop: we never expect client messages, but reading is how
	// close frames surface.
	go func() {
		defer func() {
			h.unregister <- client
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
