package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/database"
	"github.com/skillsphere/skillsphere/internal/models"
)

func setupNotificationTest(userID primitive.ObjectID) (*gin.Engine, *MockStore) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := new(MockStore)
	handler := NewNotificationHandler(store)

	testAuth := func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}

	router.GET("/api/notifications", testAuth, handler.GetNotifications)
	router.PUT("/api/notifications/:id/read", testAuth, handler.MarkRead)

	return router, store
}

func TestGetNotifications(t *testing.T) {
	userID := primitive.NewObjectID()
	router, store := setupNotificationTest(userID)

	n, err := models.NewNotification(userID, models.NotificationNewMessage,
		"New message", "Ann sent you a message",
		models.NewMessagePayload{ChatID: primitive.NewObjectID(), MessageID: primitive.NewObjectID(), Preview: "hi"})
	assert.NoError(t, err)

	store.On("ListNotifications", mock.Anything, userID).Return([]*models.Notification{n}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new_message")
}

func TestMarkNotificationRead(t *testing.T) {
	userID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	router, store := setupNotificationTest(userID)

	store.On("MarkNotificationRead", mock.Anything, id, userID).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/"+id.Hex()+"/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

// Marking someone else's notification behaves like a missing one.
func TestMarkNotificationReadNotFound(t *testing.T) {
	userID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	router, store := setupNotificationTest(userID)

	store.On("MarkNotificationRead", mock.Anything, id, userID).Return(database.ErrNotificationNotFound)

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/"+id.Hex()+"/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
