package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/database"
	"github.com/skillsphere/skillsphere/internal/logger"
	"github.com/skillsphere/skillsphere/internal/models"
)

var msgLog = logger.New("messages")

// Notifier publishes realtime events to chat rooms. The websocket
// manager implements it; tests substitute a mock.
type Notifier interface {
	Publish(roomID string, payload any) error
}

// messageEvent is the frame pushed to room subscribers after a message
// is persisted. It is the message document plus the frame tag.
type messageEvent struct {
	Type string `json:"type"`
	*models.Message
}

// MessageHandler handles message send and history routes.
type MessageHandler struct {
	Store    database.Store
	Notifier Notifier
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(store database.Store, notifier Notifier) *MessageHandler {
	return &MessageHandler{Store: store, Notifier: notifier}
}

// SendMessage persists a message, updates the parent chat's preview and
// publishes the resolved message to the chat's room. The message insert
// is the durability boundary: preview update and publish are both
// best-effort and never fail the response once the message is stored.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid chat ID"})
		return
	}

	msg, err := h.Store.CreateMessage(c.Request.Context(), chatID, senderID, req.Text)
	if err == database.ErrChatNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// Preview is a cache; the message above is the source of truth. A
	// failure here leaves a stale preview, repaired on the next history
	// fetch.
	if err := h.Store.UpdateChatPreview(c.Request.Context(), chatID, msg.Text, msg.CreatedAt); err != nil {
		msgLog.Error("Failed to update chat preview for %s: %v", chatID.Hex(), err)
	}

	// Publish failures must never surface to the REST caller.
	if err := h.Notifier.Publish(chatID.Hex(), messageEvent{Type: "message", Message: msg}); err != nil {
		msgLog.Error("Failed to publish message %s to room %s: %v", msg.ID.Hex(), chatID.Hex(), err)
	}

	h.notifyParticipants(c, chatID, msg)

	c.JSON(http.StatusCreated, msg)
}

// notifyParticipants stores a new_message notification for every other
// chat participant. Best-effort.
func (h *MessageHandler) notifyParticipants(c *gin.Context, chatID primitive.ObjectID, msg *models.Message) {
	chat, err := h.Store.GetChatByID(c.Request.Context(), chatID)
	if err != nil {
		msgLog.Error("Failed to load chat %s for notifications: %v", chatID.Hex(), err)
		return
	}

	preview := msg.Text
	// Truncate on a rune boundary so a multi-byte character is never
	// split into invalid UTF-8.
	if runes := []rune(preview); len(runes) > 80 {
		preview = string(runes[:80])
	}
	for _, p := range chat.Participants {
		if p == msg.SenderID {
			continue
		}
		n, err := models.NewNotification(p, models.NotificationNewMessage,
			"New message", preview,
			models.NewMessagePayload{ChatID: chatID, MessageID: msg.ID, Preview: preview})
		if err != nil {
			msgLog.Error("Failed to build message notification: %v", err)
			continue
		}
		if err := h.Store.CreateNotification(c.Request.Context(), n); err != nil {
			msgLog.Error("Failed to store message notification: %v", err)
		}
	}
}

// GetMessages returns the newest messages of a chat, newest first,
// capped at the history limit, with sender identities resolved.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	chatID, err := primitive.ObjectIDFromHex(c.Param("chatID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid chat ID"})
		return
	}

	msgs, err := h.Store.ListMessages(c.Request.Context(), chatID, database.MessageHistoryLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.repairPreview(c, chatID, msgs)

	c.JSON(http.StatusOK, msgs)
}

// repairPreview reconciles a stale chat preview against the newest
// message. Covers the crash window between message insert and preview
// update, which are two independent writes.
func (h *MessageHandler) repairPreview(c *gin.Context, chatID primitive.ObjectID, msgs []*models.Message) {
	if len(msgs) == 0 {
		return
	}
	newest := msgs[0]

	chat, err := h.Store.GetChatByID(c.Request.Context(), chatID)
	if err != nil {
		msgLog.Debug("Preview repair skipped for %s: %v", chatID.Hex(), err)
		return
	}
	if !chat.LastMessageAt.Before(newest.CreatedAt) {
		return
	}
	if err := h.Store.UpdateChatPreview(c.Request.Context(), chatID, newest.Text, newest.CreatedAt); err != nil {
		msgLog.Error("Preview repair failed for %s: %v", chatID.Hex(), err)
	}
}
