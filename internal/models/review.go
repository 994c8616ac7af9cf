package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review rates a skill 1-5. Visible is a soft-moderation flag; hidden
// reviews are excluded from the skill's cached aggregate.
type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SkillID    primitive.ObjectID `bson:"skill" json:"skillId"`
	ReviewerID primitive.ObjectID `bson:"reviewer" json:"-"`
	Rating     int                `bson:"rating" json:"rating"`
	Comment    string             `bson:"comment" json:"comment"`
	Visible    bool               `bson:"visible" json:"visible"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`

	Reviewer *UserSummary `bson:"-" json:"reviewer,omitempty"`
}

// AddReviewRequest is the body for reviewing a skill.
type AddReviewRequest struct {
	SkillID string `json:"skillId" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}
