package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrChatNotFound         = errors.New("chat not found")
	ErrSkillNotFound        = errors.New("skill not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Store is the persistence boundary for the whole API. A single Mongo
// implementation backs it in production; tests substitute a mock.
type Store interface {
	// User methods
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetProfilePicture(ctx context.Context, id primitive.ObjectID, path string) error
	SearchUsersByName(ctx context.Context, query string) ([]models.UserSummary, error)
	SearchChatUsers(ctx context.Context, query string, exclude primitive.ObjectID) ([]models.UserSummary, error)

	// Chat methods
	CreateChat(ctx context.Context, participants []primitive.ObjectID, isGroup bool, exchange *models.SkillExchange) (*models.Chat, error)
	FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	ListChatsForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error)
	UpdateChatPreview(ctx context.Context, chatID primitive.ObjectID, text string, at time.Time) error
	UpdateExchangeStatus(ctx context.Context, chatID primitive.ObjectID, status string) error

	// Message methods
	CreateMessage(ctx context.Context, chatID, senderID primitive.ObjectID, text string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID primitive.ObjectID, limit int64) ([]*models.Message, error)

	// Skill methods
	CreateSkill(ctx context.Context, ownerID primitive.ObjectID, req models.CreateSkillRequest) (*models.Skill, error)
	SearchSkills(ctx context.Context, query string) ([]*models.Skill, error)
	GetSkillByID(ctx context.Context, id primitive.ObjectID) (*models.Skill, error)

	// Review methods
	CreateReview(ctx context.Context, skillID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Review, error)
	ListReviewsForSkill(ctx context.Context, skillID primitive.ObjectID) ([]*models.Review, error)
	RecomputeSkillRating(ctx context.Context, skillID primitive.ObjectID) (float64, int, error)

	// Notification methods
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error

	Close(ctx context.Context) error
}

// MessageHistoryLimit caps message history reads; there is no pagination
// cursor beyond it.
const MessageHistoryLimit = 100
