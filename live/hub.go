// Package live pushes marketplace activity to websocket clients grouped in
// per-session rooms.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/league-buysell/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

const MessageActivity = "ACTIVITY"

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// SessionRoom names the room that carries one session's activity.
func SessionRoom(sessionID int) string {
	return fmt.Sprintf("session_%d", sessionID)
}

type Client struct {
	ID     string
	UserID int
	Room   string

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string, userID int) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Room:   room,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// enqueue never blocks; a slow client misses messages.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
	done       chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run serves register/unregister requests until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for room, clients := range h.rooms {
				for c := range clients {
					c.close()
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.Room]; !ok {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			n := len(h.rooms[c.Room])
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", slog.String("room", c.Room), slog.String("client_id", c.ID), slog.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[c.Room]; ok && clients[c] {
				c.close()
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.rooms, c.Room)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", slog.String("room", c.Room), slog.String("client_id", c.ID))
		}
	}
}

// Register adds c to its room. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RoomSize returns the number of clients in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastToRoom sends message as JSON to every client of the room and
// returns how many accepted it.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) (int, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message for room %s: %w", roomID, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.rooms[roomID] {
		if c.enqueue(payload) {
			delivered++
		} else {
			h.logger.Warn("websocket client send buffer full", slog.String("room", roomID), slog.String("client_id", c.ID))
		}
	}
	return delivered, nil
}

// Sink delivers activity to the session's room.
type Sink struct {
	hub *Hub
}

func NewSink(hub *Hub) *Sink {
	return &Sink{hub: hub}
}

func (s *Sink) Name() string { return "websocket" }

func (s *Sink) Deliver(_ context.Context, activity models.Activity) error {
	room := SessionRoom(activity.SessionID)
	_, err := s.hub.BroadcastToRoom(room, Message{Type: MessageActivity, Payload: activity, RoomID: room})
	return err
}

// ReadPump drains client frames so pongs and close frames are processed.
// Incoming payloads are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket closed unexpectedly", slog.String("room", c.Room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write failed", slog.String("client_id", c.ID), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
