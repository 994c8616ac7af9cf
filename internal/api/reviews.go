package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/database"
	"github.com/skillsphere/skillsphere/internal/logger"
	"github.com/skillsphere/skillsphere/internal/models"
)

var reviewLog = logger.New("reviews")

// ReviewHandler handles skill review routes.
type ReviewHandler struct {
	Store database.Store
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(store database.Store) *ReviewHandler {
	return &ReviewHandler{Store: store}
}

// AddReview stores a review and recomputes the skill's cached rating
// aggregate in full over its visible reviews.
func (h *ReviewHandler) AddReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req models.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	skillID, err := primitive.ObjectIDFromHex(req.SkillID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid skill ID"})
		return
	}

	review, err := h.Store.CreateReview(c.Request.Context(), skillID, userID, req.Rating, req.Comment)
	if err == database.ErrSkillNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Skill not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if _, _, err := h.Store.RecomputeSkillRating(c.Request.Context(), skillID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.notifyOwner(c, skillID, review)

	c.JSON(http.StatusCreated, review)
}

// notifyOwner stores a new_review notification for the skill's owner.
// Best-effort.
func (h *ReviewHandler) notifyOwner(c *gin.Context, skillID primitive.ObjectID, review *models.Review) {
	skill, err := h.Store.GetSkillByID(c.Request.Context(), skillID)
	if err != nil {
		reviewLog.Error("Failed to load skill %s for notification: %v", skillID.Hex(), err)
		return
	}
	if skill.OwnerID == review.ReviewerID {
		return
	}

	n, err := models.NewNotification(skill.OwnerID, models.NotificationNewReview,
		"New review", "Your skill \""+skill.Title+"\" received a review",
		models.NewReviewPayload{SkillID: skillID, ReviewID: review.ID, Rating: review.Rating})
	if err != nil {
		reviewLog.Error("Failed to build review notification: %v", err)
		return
	}
	if err := h.Store.CreateNotification(c.Request.Context(), n); err != nil {
		reviewLog.Error("Failed to store review notification: %v", err)
	}
}

// GetReviews returns the reviews for a skill, reviewer identities
// resolved.
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	skillID, err := primitive.ObjectIDFromHex(c.Param("skillID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid skill ID"})
		return
	}

	reviews, err := h.Store.ListReviewsForSkill(c.Request.Context(), skillID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reviews)
}
