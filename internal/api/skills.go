package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsphere/skillsphere/internal/database"
	"github.com/skillsphere/skillsphere/internal/models"
)

// SkillHandler handles the skill marketplace routes.
type SkillHandler struct {
	Store database.Store
}

// NewSkillHandler creates a new skill handler
func NewSkillHandler(store database.Store) *SkillHandler {
	return &SkillHandler{Store: store}
}

// CreateSkill publishes a new skill listing owned by the caller.
func (h *SkillHandler) CreateSkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req models.CreateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	skill, err := h.Store.CreateSkill(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, skill)
}

// GetSkills lists active skills, optionally narrowed by a free-text
// query over title, description, tags and category.
func (h *SkillHandler) GetSkills(c *gin.Context) {
	skills, err := h.Store.SearchSkills(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, skills)
}
