package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsphere/skillsphere/internal/auth"
	"github.com/skillsphere/skillsphere/internal/database"
	"github.com/skillsphere/skillsphere/internal/models"
)

// AuthHandler handles authentication routes
type AuthHandler struct {
	Store database.Store
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store database.Store) *AuthHandler {
	return &AuthHandler{Store: store}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to process password"})
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), input.Name, input.Email, hashedPassword)
	if err == database.ErrUserAlreadyExists {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email taken"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	token, _, err := auth.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  models.NewUserResponse(user),
	})
}

// Login handles user login. A wrong password for a known email returns a
// generic 400 and never issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.UserLogin

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), input.Email)
	if err == database.ErrUserNotFound {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Wrong password"})
		return
	}

	token, _, err := auth.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  models.NewUserResponse(user),
	})
}

// GetMe gets the current user profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err == database.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": models.NewUserResponse(user)})
}
