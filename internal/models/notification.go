package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types. Each type owns an explicit payload shape; payloads
// are decoded and validated at the boundary instead of being trusted as
// free-form documents.
const (
	NotificationNewMessage     = "new_message"
	NotificationNewReview      = "new_review"
	NotificationExchangeStatus = "exchange_status"
)

var ErrUnknownNotificationType = errors.New("unknown notification type")

// Notification is an in-app notification addressed to one user. Data
// holds the raw payload document; Payload decodes it per Type.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	Body      string             `bson:"body,omitempty" json:"body,omitempty"`
	Data      json.RawMessage    `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewMessagePayload points at the message that triggered the notification.
type NewMessagePayload struct {
	ChatID    primitive.ObjectID `json:"chatId"`
	MessageID primitive.ObjectID `json:"messageId"`
	Preview   string             `json:"preview"`
}

// NewReviewPayload points at a freshly added review on one of the
// recipient's skills.
type NewReviewPayload struct {
	SkillID  primitive.ObjectID `json:"skillId"`
	ReviewID primitive.ObjectID `json:"reviewId"`
	Rating   int                `json:"rating"`
}

// ExchangeStatusPayload records a skill-exchange status transition.
type ExchangeStatusPayload struct {
	ChatID primitive.ObjectID `json:"chatId"`
	Status string             `json:"status"`
}

// Payload decodes Data according to Type and validates the result.
func (n *Notification) Payload() (any, error) {
	switch n.Type {
	case NotificationNewMessage:
		var p NewMessagePayload
		if err := json.Unmarshal(n.Data, &p); err != nil {
			return nil, err
		}
		if p.ChatID.IsZero() || p.MessageID.IsZero() {
			return nil, fmt.Errorf("new_message payload missing chat or message id")
		}
		return p, nil
	case NotificationNewReview:
		var p NewReviewPayload
		if err := json.Unmarshal(n.Data, &p); err != nil {
			return nil, err
		}
		if p.SkillID.IsZero() || p.Rating < 1 || p.Rating > 5 {
			return nil, fmt.Errorf("new_review payload invalid")
		}
		return p, nil
	case NotificationExchangeStatus:
		var p ExchangeStatusPayload
		if err := json.Unmarshal(n.Data, &p); err != nil {
			return nil, err
		}
		if p.ChatID.IsZero() || !ValidExchangeStatus(p.Status) {
			return nil, fmt.Errorf("exchange_status payload invalid")
		}
		return p, nil
	}
	return nil, ErrUnknownNotificationType
}

// NewNotification builds a notification for a typed payload.
func NewNotification(userID primitive.ObjectID, typ, title, body string, payload any) (*Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	n := &Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if _, err := n.Payload(); err != nil {
		return nil, err
	}
	return n, nil
}
