package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/database"
	"github.com/skillsphere/skillsphere/internal/logger"
	"github.com/skillsphere/skillsphere/internal/models"
)

var chatLog = logger.New("chats")

// ChatHandler handles chat lookup and creation routes.
type ChatHandler struct {
	Store database.Store
}

// NewChatHandler creates a new chat handler
func NewChatHandler(store database.Store) *ChatHandler {
	return &ChatHandler{Store: store}
}

// CreateChat creates a chat unconditionally, direct or group. No
// duplicate check; get-or-create lives on the /direct route.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req models.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	participants := make([]primitive.ObjectID, 0, len(req.Participants)+1)
	seen := map[primitive.ObjectID]struct{}{}
	for _, hex := range append(req.Participants, userID.Hex()) {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid participant ID"})
			return
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}

	chat, err := h.Store.CreateChat(c.Request.Context(), participants, req.IsGroup, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// GetChats returns the caller's chats, participant identities resolved.
func (h *ChatHandler) GetChats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	chats, err := h.Store.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, chats)
}

// GetOrCreateDirectChat returns the existing chat containing both the
// caller and the given participant, or creates a new direct chat. An
// existing match wins and the skillExchange payload is ignored for it.
func (h *ChatHandler) GetOrCreateDirectChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req models.DirectChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Participant ID is required"})
		return
	}

	otherID, err := primitive.ObjectIDFromHex(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid participant ID"})
		return
	}

	existing, err := h.Store.FindDirectChat(c.Request.Context(), userID, otherID)
	if err == nil {
		c.JSON(http.StatusOK, existing)
		return
	}
	if err != database.ErrChatNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	exchange := req.SkillExchange
	if exchange == nil {
		exchange = models.DefaultSkillExchange()
	} else if exchange.Status == "" {
		exchange.Status = models.ExchangePending
	} else if !models.ValidExchangeStatus(exchange.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid exchange status"})
		return
	}

	chat, err := h.Store.CreateChat(c.Request.Context(), []primitive.ObjectID{userID, otherID}, false, exchange)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// SearchUsers finds users to chat with by name, email, expertise or
// skill tag, excluding the caller.
func (h *ChatHandler) SearchUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Search query is required"})
		return
	}

	users, err := h.Store.SearchChatUsers(c.Request.Context(), query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateExchangeStatus moves a chat's skill exchange through its
// lifecycle. Only participants may change it.
func (h *ChatHandler) UpdateExchangeStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	chatID, err := primitive.ObjectIDFromHex(c.Param("chatID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid chat ID"})
		return
	}

	var req models.ExchangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !models.ValidExchangeStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid exchange status"})
		return
	}

	chat, err := h.Store.GetChatByID(c.Request.Context(), chatID)
	if err == database.ErrChatNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	member := false
	for _, p := range chat.Participants {
		if p == userID {
			member = true
			break
		}
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not a participant of this chat"})
		return
	}

	if err := h.Store.UpdateExchangeStatus(c.Request.Context(), chatID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// Best-effort notification to the other participants.
	for _, p := range chat.Participants {
		if p == userID {
			continue
		}
		n, err := models.NewNotification(p, models.NotificationExchangeStatus,
			"Skill exchange updated", "Exchange status changed to "+req.Status,
			models.ExchangeStatusPayload{ChatID: chatID, Status: req.Status})
		if err != nil {
			chatLog.Error("Failed to build exchange notification: %v", err)
			continue
		}
		if err := h.Store.CreateNotification(c.Request.Context(), n); err != nil {
			chatLog.Error("Failed to store exchange notification: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exchange status updated"})
}
