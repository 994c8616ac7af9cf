package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillsphere/skillsphere/internal/models"
)

// MongoStore implements Store on top of a MongoDB database.
type MongoStore struct {
	client        *mongo.Client
	users         *mongo.Collection
	chats         *mongo.Collection
	messages      *mongo.Collection
	skills        *mongo.Collection
	reviews       *mongo.Collection
	notifications *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store bound to dbName.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	return &MongoStore{
		client:        client,
		users:         db.Collection("users"),
		chats:         db.Collection("chats"),
		messages:      db.Collection("messages"),
		skills:        db.Collection("skills"),
		reviews:       db.Collection("reviews"),
		notifications: db.Collection("notifications"),
	}, nil
}

// EnsureIndexes creates the indexes the queries rely on. Safe to call on
// every startup; Mongo treats existing identical indexes as a no-op.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = s.skills.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "tags", Value: "text"},
			{Key: "category", Value: "text"},
		},
	})
	if err != nil {
		return err
	}

	_, err = s.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// --- Users ---

func (s *MongoStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	count, err := s.users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return user, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil && *update.Name != "" {
		set["name"] = *update.Name
	}
	if update.Email != nil && *update.Email != "" {
		// Reject an email already owned by another account.
		count, err := s.users.CountDocuments(ctx, bson.M{
			"email": *update.Email,
			"_id":   bson.M{"$ne": id},
		})
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrUserAlreadyExists
		}
		set["email"] = *update.Email
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Skills != nil {
		set["skills"] = *update.Skills
	}
	if update.SocialLinks != nil {
		set["socialLinks"] = *update.SocialLinks
	}

	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) UpdateUserPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	res, err := s.users.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"password": passwordHash, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) SetProfilePicture(ctx context.Context, id primitive.ObjectID, path string) error {
	res, err := s.users.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"profilePicture": path, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) SearchUsersByName(ctx context.Context, query string) ([]models.UserSummary, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: query, Options: "i"}}
	return s.findUserSummaries(ctx, filter, 0)
}

func (s *MongoStore) SearchChatUsers(ctx context.Context, query string, exclude primitive.ObjectID) ([]models.UserSummary, error) {
	return s.findUserSummaries(ctx, chatUserSearchFilter(query, exclude), 20)
}

func (s *MongoStore) findUserSummaries(ctx context.Context, filter bson.M, limit int64) ([]models.UserSummary, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	summaries := []models.UserSummary{}
	for cur.Next(ctx) {
		var user models.User
		if err := cur.Decode(&user); err != nil {
			return nil, err
		}
		summaries = append(summaries, user.Summary())
	}
	return summaries, cur.Err()
}

// resolveUsers fetches display summaries for a set of user ids in one
// round trip.
func (s *MongoStore) resolveUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	resolved := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var user models.User
		if err := cur.Decode(&user); err != nil {
			return nil, err
		}
		resolved[user.ID] = user.Summary()
	}
	return resolved, cur.Err()
}

// --- Chats ---

func (s *MongoStore) CreateChat(ctx context.Context, participants []primitive.ObjectID, isGroup bool, exchange *models.SkillExchange) (*models.Chat, error) {
	now := time.Now()
	chat := &models.Chat{
		ID:            primitive.NewObjectID(),
		IsGroup:       isGroup,
		Participants:  participants,
		SkillExchange: exchange,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.chats.InsertOne(ctx, chat); err != nil {
		return nil, err
	}
	if err := s.populateChatParticipants(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *MongoStore) FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := s.chats.FindOne(ctx, directChatFilter(a, b)).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.populateChatParticipants(ctx, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *MongoStore) GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.populateChatParticipants(ctx, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *MongoStore) ListChatsForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	cur, err := s.chats.Find(ctx,
		bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	chats := []*models.Chat{}
	idSet := map[primitive.ObjectID]struct{}{}
	for cur.Next(ctx) {
		var chat models.Chat
		if err := cur.Decode(&chat); err != nil {
			return nil, err
		}
		chats = append(chats, &chat)
		for _, p := range chat.Participants {
			idSet[p] = struct{}{}
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	resolved, err := s.resolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, chat := range chats {
		chat.ParticipantDetails = participantDetails(chat.Participants, resolved)
	}
	return chats, nil
}

func (s *MongoStore) UpdateChatPreview(ctx context.Context, chatID primitive.ObjectID, text string, at time.Time) error {
	res, err := s.chats.UpdateByID(ctx, chatID, bson.M{
		"$set": bson.M{"lastMessage": text, "lastMessageAt": at, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (s *MongoStore) UpdateExchangeStatus(ctx context.Context, chatID primitive.ObjectID, status string) error {
	res, err := s.chats.UpdateByID(ctx, chatID, bson.M{
		"$set": bson.M{"skillExchange.status": status, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (s *MongoStore) populateChatParticipants(ctx context.Context, chat *models.Chat) error {
	resolved, err := s.resolveUsers(ctx, chat.Participants)
	if err != nil {
		return err
	}
	chat.ParticipantDetails = participantDetails(chat.Participants, resolved)
	return nil
}

func participantDetails(ids []primitive.ObjectID, resolved map[primitive.ObjectID]models.UserSummary) []models.UserSummary {
	details := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if summary, ok := resolved[id]; ok {
			details = append(details, summary)
		}
	}
	return details
}

// --- Messages ---

func (s *MongoStore) CreateMessage(ctx context.Context, chatID, senderID primitive.ObjectID, text string) (*models.Message, error) {
	count, err := s.chats.CountDocuments(ctx, bson.M{"_id": chatID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrChatNotFound
	}

	msg := &models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return nil, err
	}

	resolved, err := s.resolveUsers(ctx, []primitive.ObjectID{senderID})
	if err != nil {
		return nil, err
	}
	if sender, ok := resolved[senderID]; ok {
		msg.Sender = &sender
	}
	return msg, nil
}

func (s *MongoStore) ListMessages(ctx context.Context, chatID primitive.ObjectID, limit int64) ([]*models.Message, error) {
	if limit <= 0 || limit > MessageHistoryLimit {
		limit = MessageHistoryLimit
	}

	cur, err := s.messages.Find(ctx,
		bson.M{"chat": chatID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []*models.Message{}
	idSet := map[primitive.ObjectID]struct{}{}
	for cur.Next(ctx) {
		var msg models.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, &msg)
		idSet[msg.SenderID] = struct{}{}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	resolved, err := s.resolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if sender, ok := resolved[msg.SenderID]; ok {
			msg.Sender = &sender
		}
	}
	return msgs, nil
}

// --- Skills ---

func (s *MongoStore) CreateSkill(ctx context.Context, ownerID primitive.ObjectID, req models.CreateSkillRequest) (*models.Skill, error) {
	category := req.Category
	if category == "" {
		category = "General"
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	skill := &models.Skill{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Description: req.Description,
		Tags:        tags,
		Category:    category,
		OwnerID:     ownerID,
		Price:       req.Price,
		Location:    req.Location,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.skills.InsertOne(ctx, skill); err != nil {
		return nil, err
	}

	// Record the listing on the owner's profile.
	_, err := s.users.UpdateByID(ctx, ownerID, bson.M{
		"$push": bson.M{"skills": skill.ID.Hex()},
	})
	if err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *MongoStore) SearchSkills(ctx context.Context, query string) ([]*models.Skill, error) {
	cur, err := s.skills.Find(ctx, skillSearchFilter(query))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	skills := []*models.Skill{}
	idSet := map[primitive.ObjectID]struct{}{}
	for cur.Next(ctx) {
		var skill models.Skill
		if err := cur.Decode(&skill); err != nil {
			return nil, err
		}
		skills = append(skills, &skill)
		idSet[skill.OwnerID] = struct{}{}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	resolved, err := s.resolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, skill := range skills {
		if owner, ok := resolved[skill.OwnerID]; ok {
			skill.Owner = &owner
		}
	}
	return skills, nil
}

func (s *MongoStore) GetSkillByID(ctx context.Context, id primitive.ObjectID) (*models.Skill, error) {
	var skill models.Skill
	err := s.skills.FindOne(ctx, bson.M{"_id": id}).Decode(&skill)
	if err == mongo.ErrNoDocuments {
		return nil, ErrSkillNotFound
	}
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// --- Reviews ---

func (s *MongoStore) CreateReview(ctx context.Context, skillID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Review, error) {
	count, err := s.skills.CountDocuments(ctx, bson.M{"_id": skillID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrSkillNotFound
	}

	review := &models.Review{
		ID:         primitive.NewObjectID(),
		SkillID:    skillID,
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    comment,
		Visible:    true,
		CreatedAt:  time.Now(),
	}
	if _, err := s.reviews.InsertOne(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *MongoStore) ListReviewsForSkill(ctx context.Context, skillID primitive.ObjectID) ([]*models.Review, error) {
	cur, err := s.reviews.Find(ctx,
		bson.M{"skill": skillID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	reviews := []*models.Review{}
	idSet := map[primitive.ObjectID]struct{}{}
	for cur.Next(ctx) {
		var review models.Review
		if err := cur.Decode(&review); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
		idSet[review.ReviewerID] = struct{}{}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	resolved, err := s.resolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		if reviewer, ok := resolved[review.ReviewerID]; ok {
			review.Reviewer = &reviewer
		}
	}
	return reviews, nil
}

// RecomputeSkillRating rebuilds the skill's cached aggregate from its
// visible reviews and writes it back. Returns the new average and count.
func (s *MongoStore) RecomputeSkillRating(ctx context.Context, skillID primitive.ObjectID) (float64, int, error) {
	cur, err := s.reviews.Find(ctx, bson.M{"skill": skillID, "visible": true})
	if err != nil {
		return 0, 0, err
	}
	defer cur.Close(ctx)

	reviews := []*models.Review{}
	for cur.Next(ctx) {
		var review models.Review
		if err := cur.Decode(&review); err != nil {
			return 0, 0, err
		}
		reviews = append(reviews, &review)
	}
	if err := cur.Err(); err != nil {
		return 0, 0, err
	}

	avg, count := ratingSummary(reviews)
	res, err := s.skills.UpdateByID(ctx, skillID, bson.M{
		"$set": bson.M{"avgRating": avg, "reviewsCount": count, "updatedAt": time.Now()},
	})
	if err != nil {
		return 0, 0, err
	}
	if res.MatchedCount == 0 {
		return 0, 0, ErrSkillNotFound
	}
	return avg, count, nil
}

// --- Notifications ---

func (s *MongoStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.notifications.InsertOne(ctx, n)
	return err
}

func (s *MongoStore) ListNotifications(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error) {
	cur, err := s.notifications.Find(ctx,
		bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(50),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	notifications := []*models.Notification{}
	for cur.Next(ctx) {
		var n models.Notification
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, cur.Err()
}

func (s *MongoStore) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
