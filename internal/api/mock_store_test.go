package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/models"
)

// MockStore implements database.Store for handler tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, name, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUserPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockStore) SetProfilePicture(ctx context.Context, id primitive.ObjectID, path string) error {
	args := m.Called(ctx, id, path)
	return args.Error(0)
}

func (m *MockStore) SearchUsersByName(ctx context.Context, query string) ([]models.UserSummary, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockStore) SearchChatUsers(ctx context.Context, query string, exclude primitive.ObjectID) ([]models.UserSummary, error) {
	args := m.Called(ctx, query, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockStore) CreateChat(ctx context.Context, participants []primitive.ObjectID, isGroup bool, exchange *models.SkillExchange) (*models.Chat, error) {
	args := m.Called(ctx, participants, isGroup, exchange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStore) FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStore) GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStore) ListChatsForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Chat), args.Error(1)
}

func (m *MockStore) UpdateChatPreview(ctx context.Context, chatID primitive.ObjectID, text string, at time.Time) error {
	args := m.Called(ctx, chatID, text, at)
	return args.Error(0)
}

func (m *MockStore) UpdateExchangeStatus(ctx context.Context, chatID primitive.ObjectID, status string) error {
	args := m.Called(ctx, chatID, status)
	return args.Error(0)
}

func (m *MockStore) CreateMessage(ctx context.Context, chatID, senderID primitive.ObjectID, text string) (*models.Message, error) {
	args := m.Called(ctx, chatID, senderID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStore) ListMessages(ctx context.Context, chatID primitive.ObjectID, limit int64) ([]*models.Message, error) {
	args := m.Called(ctx, chatID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockStore) CreateSkill(ctx context.Context, ownerID primitive.ObjectID, req models.CreateSkillRequest) (*models.Skill, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Skill), args.Error(1)
}

func (m *MockStore) SearchSkills(ctx context.Context, query string) ([]*models.Skill, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Skill), args.Error(1)
}

func (m *MockStore) GetSkillByID(ctx context.Context, id primitive.ObjectID) (*models.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Skill), args.Error(1)
}

func (m *MockStore) CreateReview(ctx context.Context, skillID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Review, error) {
	args := m.Called(ctx, skillID, reviewerID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockStore) ListReviewsForSkill(ctx context.Context, skillID primitive.ObjectID) ([]*models.Review, error) {
	args := m.Called(ctx, skillID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockStore) RecomputeSkillRating(ctx context.Context, skillID primitive.ObjectID) (float64, int, error) {
	args := m.Called(ctx, skillID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *MockStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockStore) ListNotifications(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockStore) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockNotifier records realtime publishes.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(roomID string, payload any) error {
	args := m.Called(roomID, payload)
	return args.Error(0)
}
