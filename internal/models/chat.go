package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Skill exchange lifecycle states.
const (
	ExchangePending    = "pending"
	ExchangeAccepted   = "accepted"
	ExchangeInProgress = "in-progress"
	ExchangeCompleted  = "completed"
)

// ValidExchangeStatus reports whether s is a known exchange state.
func ValidExchangeStatus(s string) bool {
	switch s {
	case ExchangePending, ExchangeAccepted, ExchangeInProgress, ExchangeCompleted:
		return true
	}
	return false
}

// SkillExchange annotates a direct chat with what each side offers and
// requests, plus a coarse status.
type SkillExchange struct {
	SkillOffered   string `bson:"skillOffered" json:"skillOffered"`
	SkillRequested string `bson:"skillRequested" json:"skillRequested"`
	Status         string `bson:"status" json:"status"`
}

// DefaultSkillExchange is the placeholder annotation used when a direct
// chat is created without one.
func DefaultSkillExchange() *SkillExchange {
	return &SkillExchange{
		SkillOffered:   "Your Skill",
		SkillRequested: "Their Skill",
		Status:         ExchangePending,
	}
}

// Chat is a conversation between two or more users. LastMessage and
// LastMessageAt are a denormalized preview of the newest message; the
// messages collection stays authoritative.
type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	IsGroup       bool                 `bson:"isGroup" json:"isGroup"`
	Participants  []primitive.ObjectID `bson:"participants" json:"-"`
	SkillExchange *SkillExchange       `bson:"skillExchange,omitempty" json:"skillExchange,omitempty"`
	LastMessage   string               `bson:"lastMessage" json:"lastMessage"`
	LastMessageAt time.Time            `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`

	// ParticipantDetails carries resolved identities; populated on reads,
	// never stored.
	ParticipantDetails []UserSummary `bson:"-" json:"participants,omitempty"`
}

// CreateChatRequest is the body for unconditional chat creation.
type CreateChatRequest struct {
	Participants []string `json:"participants" binding:"required,min=1"`
	IsGroup      bool     `json:"isGroup"`
}

// DirectChatRequest is the body for get-or-create of a direct chat.
type DirectChatRequest struct {
	ParticipantID string         `json:"participantId" binding:"required"`
	SkillExchange *SkillExchange `json:"skillExchange,omitempty"`
}

// ExchangeStatusRequest updates the skill-exchange status on a chat.
type ExchangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
