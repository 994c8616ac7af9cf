package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Skill is a marketplace listing owned by a user. AvgRating and
// ReviewsCount are a cached aggregate over visible reviews and must be
// recomputed in full whenever an affecting review changes.
type Skill struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Tags          []string           `bson:"tags" json:"tags"`
	Category      string             `bson:"category" json:"category"`
	OwnerID       primitive.ObjectID `bson:"owner" json:"-"`
	Price         float64            `bson:"price" json:"price"`
	Location      string             `bson:"location" json:"location"`
	Active        bool               `bson:"active" json:"active"`
	AvgRating     float64            `bson:"avgRating" json:"avgRating"`
	ReviewsCount  int                `bson:"reviewsCount" json:"reviewsCount"`
	ExchangeOffer string             `bson:"exchangeOffer,omitempty" json:"exchangeOffer,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	Owner *UserSummary `bson:"-" json:"owner,omitempty"`
}

// CreateSkillRequest is the body for publishing a skill listing.
type CreateSkillRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
}
