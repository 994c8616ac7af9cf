package chatclient

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/logger"
	"github.com/skillsphere/skillsphere/internal/models"
)

var log = logger.New("chatclient")

// API is the REST surface the controller consumes.
type API interface {
	FetchChats(ctx context.Context) ([]*models.Chat, error)
	FetchMessages(ctx context.Context, chatID string) ([]*models.Message, error)
	SendMessage(ctx context.Context, chatID, text string) (*models.Message, error)
	StartDirectChat(ctx context.Context, participantID string, exchange *models.SkillExchange) (*models.Chat, error)
}

// RoomSocket is the realtime surface: room membership plus the client's
// own emits.
type RoomSocket interface {
	Join(chatID string) error
	Leave(chatID string) error
	EmitMessage(msg *models.Message) error
	EmitTyping(chatID, userID string, isTyping bool) error
}

// ChatEntry is a chat-list row with its local unread counter.
type ChatEntry struct {
	Chat        *models.Chat
	UnreadCount int
}

// Controller reconciles REST-fetched history with socket-pushed
// messages for one user session. Opening a chat fetches history and
// then joins its room; closing leaves it. Pushed messages arrive twice
// for every send (server publish plus the sender's re-emit), so the
// visible list dedupes by message id.
type Controller struct {
	api    API
	socket RoomSocket
	userID string

	mu           sync.Mutex
	chats        []*ChatEntry
	activeChatID string
	messages     []*models.Message
	seen         map[primitive.ObjectID]struct{}
}

// New creates a controller for the given user session.
func New(api API, socket RoomSocket, userID string) *Controller {
	return &Controller{
		api:    api,
		socket: socket,
		userID: userID,
		seen:   make(map[primitive.ObjectID]struct{}),
	}
}

// LoadChats replaces the chat list from the server, deduplicating
// entries by counterpart identity and keeping existing unread counters.
// The list shows one row per person: when several chats share the same
// counterpart, only the first survives.
func (c *Controller) LoadChats(ctx context.Context) error {
	chats, err := c.api.FetchChats(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	unread := map[primitive.ObjectID]int{}
	for _, entry := range c.chats {
		unread[entry.Chat.ID] = entry.UnreadCount
	}

	c.chats = c.chats[:0]
	seen := map[primitive.ObjectID]struct{}{}
	for _, chat := range chats {
		key := counterpartKey(chat)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.chats = append(c.chats, &ChatEntry{Chat: chat, UnreadCount: unread[chat.ID]})
	}
	return nil
}

// counterpartKey identifies a chat-list row by its counterpart, the
// first resolved participant. Chats without resolved participants fall
// back to their own id so they are never collapsed together.
func counterpartKey(chat *models.Chat) primitive.ObjectID {
	if len(chat.ParticipantDetails) > 0 {
		return chat.ParticipantDetails[0].ID
	}
	return chat.ID
}

// Open makes a chat active: fetch its history first, then join its
// room. Any previously open chat's room is left only after the fetch
// succeeds, so a failed open leaves the current chat fully subscribed.
// The unread counter of the opened chat resets.
func (c *Controller) Open(ctx context.Context, chatID string) error {
	history, err := c.api.FetchMessages(ctx, chatID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	previous := c.activeChatID
	c.mu.Unlock()

	if previous != "" && previous != chatID {
		if err := c.socket.Leave(previous); err != nil {
			log.Warn("Failed to leave room %s: %v", previous, err)
		}
	}

	c.mu.Lock()
	c.activeChatID = chatID
	// History arrives newest-first; display order is chronological.
	c.messages = c.messages[:0]
	c.seen = make(map[primitive.ObjectID]struct{})
	for i := len(history) - 1; i >= 0; i-- {
		c.messages = append(c.messages, history[i])
		c.seen[history[i].ID] = struct{}{}
	}
	for _, entry := range c.chats {
		if entry.Chat.ID.Hex() == chatID {
			entry.UnreadCount = 0
		}
	}
	c.mu.Unlock()

	return c.socket.Join(chatID)
}

// Close leaves the active chat's room and clears the visible list.
func (c *Controller) Close() {
	c.mu.Lock()
	active := c.activeChatID
	c.activeChatID = ""
	c.messages = c.messages[:0]
	c.seen = make(map[primitive.ObjectID]struct{})
	c.mu.Unlock()

	if active != "" {
		if err := c.socket.Leave(active); err != nil {
			log.Warn("Failed to leave room %s: %v", active, err)
		}
	}
}

// OnMessage merges a socket-pushed message into local state. Only the
// active chat's visible list grows; every chat's preview updates, and
// non-active chats gain unread. Duplicate deliveries of the same
// message id are dropped.
func (c *Controller) OnMessage(msg *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chatID := msg.ChatID.Hex()
	active := chatID == c.activeChatID

	if active {
		if _, dup := c.seen[msg.ID]; !dup {
			c.seen[msg.ID] = struct{}{}
			c.messages = append(c.messages, msg)
		}
	}

	for _, entry := range c.chats {
		if entry.Chat.ID != msg.ChatID {
			continue
		}
		entry.Chat.LastMessage = msg.Text
		entry.Chat.LastMessageAt = msg.CreatedAt
		if !active {
			entry.UnreadCount++
		}
	}
}

// OnTyping is a no-op hook for typing indicators; embedders override
// behavior by wrapping the controller.
func (c *Controller) OnTyping(chatID, userID string, isTyping bool) {}

// Send posts the message over REST, appends the returned document
// optimistically and re-emits it to the room. The server already
// published it once; receivers dedupe by id.
func (c *Controller) Send(ctx context.Context, text string) (*models.Message, error) {
	c.mu.Lock()
	chatID := c.activeChatID
	c.mu.Unlock()

	msg, err := c.api.SendMessage(ctx, chatID, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, dup := c.seen[msg.ID]; !dup {
		c.seen[msg.ID] = struct{}{}
		c.messages = append(c.messages, msg)
	}
	for _, entry := range c.chats {
		if entry.Chat.ID == msg.ChatID {
			entry.Chat.LastMessage = msg.Text
			entry.Chat.LastMessageAt = msg.CreatedAt
		}
	}
	c.mu.Unlock()

	if err := c.socket.EmitMessage(msg); err != nil {
		log.Warn("Failed to re-emit message %s: %v", msg.ID.Hex(), err)
	}
	return msg, nil
}

// Typing forwards a typing indicator for the active chat.
func (c *Controller) Typing(isTyping bool) {
	c.mu.Lock()
	chatID := c.activeChatID
	c.mu.Unlock()
	if chatID == "" {
		return
	}
	if err := c.socket.EmitTyping(chatID, c.userID, isTyping); err != nil {
		log.Warn("Failed to emit typing for %s: %v", chatID, err)
	}
}

// StartDirectChat gets or creates the direct chat with a user, upserts
// it into the chat list by id and opens it.
func (c *Controller) StartDirectChat(ctx context.Context, participantID string, exchange *models.SkillExchange) (*models.Chat, error) {
	chat, err := c.api.StartDirectChat(ctx, participantID, exchange)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	found := false
	for _, entry := range c.chats {
		if entry.Chat.ID == chat.ID {
			entry.Chat = chat
			found = true
			break
		}
	}
	if !found {
		c.chats = append([]*ChatEntry{{Chat: chat}}, c.chats...)
	}
	c.mu.Unlock()

	if err := c.Open(ctx, chat.ID.Hex()); err != nil {
		return nil, err
	}
	return chat, nil
}

// ActiveChatID returns the currently open chat id, empty if none.
func (c *Controller) ActiveChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeChatID
}

// Messages returns a snapshot of the visible message list in display
// order.
func (c *Controller) Messages() []*models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Chats returns a snapshot of the chat list.
func (c *Controller) Chats() []ChatEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatEntry, 0, len(c.chats))
	for _, entry := range c.chats {
		out = append(out, *entry)
	}
	return out
}

// UnreadCount returns the unread counter for a chat, 0 if unknown.
func (c *Controller) UnreadCount(chatID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.chats {
		if entry.Chat.ID.Hex() == chatID {
			return entry.UnreadCount
		}
	}
	return 0
}
