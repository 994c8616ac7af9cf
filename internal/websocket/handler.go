package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/logger"
)

// Frame types exchanged over the socket. Each type has an explicit field
// set; frames are decoded and validated before they touch room state.
const (
	FrameJoin    = "join"
	FrameLeave   = "leave"
	FrameMessage = "message"
	FrameTyping  = "typing"
	FrameError   = "error"
)

var log = logger.New("websocket")

// Frame is the tagged envelope for client and server events. ChatID
// doubles as the room identifier. Message frames carry the rest of the
// message document inline and are rebroadcast to the room verbatim.
type Frame struct {
	Type     string `json:"type"`
	ChatID   string `json:"chatId,omitempty"`
	IsTyping bool   `json:"isTyping,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Client represents a connected websocket client.
type Client struct {
	UserID primitive.ObjectID
	Socket *websocket.Conn
	Send   chan []byte

	rooms map[string]struct{}
}

// Manager owns the room registry: a concurrency-safe mapping from room
// id (= chat id) to the set of subscribed connections. It is an explicit
// injectable service with lifecycle tied to the server process, not a
// package-level singleton.
type Manager struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewManager creates a new room manager.
func NewManager() *Manager {
	return &Manager{
		rooms:      make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes client lifecycle events until Stop is called.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = struct{}{}
			m.mu.Unlock()
			log.Info("Client connected: %s", client.UserID.Hex())
		case client := <-m.unregister:
			m.removeClient(client)
		case <-m.done:
			return
		}
	}
}

// Stop terminates the run loop and disconnects every client.
func (m *Manager) Stop() {
	close(m.done)
	m.mu.Lock()
	defer m.mu.Unlock()
	for client := range m.clients {
		close(client.Send)
		delete(m.clients, client)
	}
	m.rooms = make(map[string]map[*Client]struct{})
}

func (m *Manager) removeClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client]; !ok {
		return
	}
	for room := range client.rooms {
		m.leaveLocked(client, room)
	}
	delete(m.clients, client)
	close(client.Send)
	log.Info("Client disconnected: %s", client.UserID.Hex())
}

// Join subscribes a client to a room. Idempotent.
func (m *Manager) Join(client *Client, roomID string) {
	if roomID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	subscribers, ok := m.rooms[roomID]
	if !ok {
		subscribers = make(map[*Client]struct{})
		m.rooms[roomID] = subscribers
	}
	subscribers[client] = struct{}{}
	client.rooms[roomID] = struct{}{}
	log.Debug("Client %s joined room %s", client.UserID.Hex(), roomID)
}

// Leave unsubscribes a client from a room. Idempotent; no-op if the
// client is not a member.
func (m *Manager) Leave(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(client, roomID)
}

func (m *Manager) leaveLocked(client *Client, roomID string) {
	if subscribers, ok := m.rooms[roomID]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

// RoomSize returns the current number of subscribers in a room.
func (m *Manager) RoomSize(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

// Publish marshals payload and delivers it to every current subscriber
// of the room, the publisher's own connection included. No replay: a
// subscriber that reconnects must re-fetch history.
func (m *Manager) Publish(roomID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.PublishRaw(roomID, data)
	return nil
}

// PublishRaw delivers pre-encoded bytes to every subscriber of a room.
// Subscribers whose send buffer is full are dropped.
func (m *Manager) PublishRaw(roomID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for client := range m.rooms[roomID] {
		select {
		case client.Send <- data:
		default:
			for room := range client.rooms {
				m.leaveLocked(client, room)
			}
			delete(m.clients, client)
			close(client.Send)
			log.Warn("Dropping slow client %s", client.UserID.Hex())
		}
	}
}

// HandleWebSocket upgrades the request and starts the client pumps.
// Expects userID (an ObjectID) in the gin context, set by auth.
func (m *Manager) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		log.Warn("No userID in context, rejecting connection from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userOID, ok := userID.(primitive.ObjectID)
	if !ok {
		log.Error("Invalid user id in context from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user identification"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			log.Debug("WebSocket origin: %s", origin)
			// TODO: restrict origins once the frontend host list is final
			return true
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		UserID: userOID,
		Socket: conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]struct{}),
	}

	m.register <- client

	go client.readPump(m)
	go client.writePump()
	log.Info("Client %s connected and ready", client.UserID.Hex())
}

func (c *Client) sendError(content string) {
	frame := Frame{Type: FrameError, Content: content}
	data, _ := json.Marshal(frame)
	select {
	case c.Send <- data:
	default:
	}
}

// readPump pumps frames from the websocket connection into the manager.
func (c *Client) readPump(m *Manager) {
	defer func() {
		m.unregister <- c
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(64 * 1024)
	c.Socket.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	messageCount := 0
	lastResetTime := time.Now()
	const maxMessagesPerMinute = 60

	for {
		if messageCount >= maxMessagesPerMinute {
			if time.Since(lastResetTime) < time.Minute {
				log.Warn("Rate limit exceeded for client %s", c.UserID.Hex())
				time.Sleep(time.Second)
				continue
			}
			messageCount = 0
			lastResetTime = time.Now()
		}

		_, raw, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading from client %s: %v", c.UserID.Hex(), err)
			} else {
				log.Info("Client %s closed connection: %v", c.UserID.Hex(), err)
			}
			break
		}
		messageCount++

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Error("Error unmarshaling frame: %v", err)
			c.sendError("Invalid message format")
			continue
		}

		switch frame.Type {
		case FrameJoin:
			if frame.ChatID == "" {
				c.sendError("join requires chatId")
				continue
			}
			m.Join(c, frame.ChatID)
		case FrameLeave:
			if frame.ChatID == "" {
				c.sendError("leave requires chatId")
				continue
			}
			m.Leave(c, frame.ChatID)
		case FrameMessage:
			// Client-side re-emit of an already persisted message.
			// Rebroadcast the original bytes to the room verbatim;
			// receivers dedupe by message id.
			if frame.ChatID == "" {
				c.sendError("message requires chatId")
				continue
			}
			m.PublishRaw(frame.ChatID, raw)
		case FrameTyping:
			// Typing indicators are never persisted.
			if frame.ChatID == "" {
				c.sendError("typing requires chatId")
				continue
			}
			m.PublishRaw(frame.ChatID, raw)
		default:
			log.Warn("Unknown frame type %q from client %s", frame.Type, c.UserID.Hex())
			c.sendError("Unknown message type")
		}
	}
}

// writePump pumps messages from the manager to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Socket.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued messages into the same websocket write.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
