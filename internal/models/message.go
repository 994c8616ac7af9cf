package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message belongs to exactly one chat and is immutable once created.
// It is persisted before any realtime publish; a message that fails to
// persist is never published.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chat" json:"chatId"`
	SenderID  primitive.ObjectID `bson:"sender" json:"-"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	// Sender carries the resolved sender identity; populated on reads
	// and on the send response, never stored.
	Sender *UserSummary `bson:"-" json:"sender,omitempty"`
}

// SendMessageRequest is the body for sending a message to a chat.
type SendMessageRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}
