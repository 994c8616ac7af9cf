package chatclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/models"
)

// fakeAPI is a scripted REST backend.
type fakeAPI struct {
	chats    []*models.Chat
	history  map[string][]*models.Message
	sent     []*models.Message
	direct   *models.Chat
	sendErr  error
	fetchErr error
}

func (f *fakeAPI) FetchChats(ctx context.Context) ([]*models.Chat, error) {
	return f.chats, f.fetchErr
}

func (f *fakeAPI) FetchMessages(ctx context.Context, chatID string) ([]*models.Message, error) {
	return f.history[chatID], f.fetchErr
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID, text string) (*models.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	id, _ := primitive.ObjectIDFromHex(chatID)
	msg := &models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    id,
		Text:      text,
		CreatedAt: time.Now(),
	}
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakeAPI) StartDirectChat(ctx context.Context, participantID string, exchange *models.SkillExchange) (*models.Chat, error) {
	return f.direct, nil
}

// fakeSocket records room membership calls in order.
type fakeSocket struct {
	ops     []string
	emitted []*models.Message
}

func (f *fakeSocket) Join(chatID string) error {
	f.ops = append(f.ops, "join:"+chatID)
	return nil
}

func (f *fakeSocket) Leave(chatID string) error {
	f.ops = append(f.ops, "leave:"+chatID)
	return nil
}

func (f *fakeSocket) EmitMessage(msg *models.Message) error {
	f.emitted = append(f.emitted, msg)
	return nil
}

func (f *fakeSocket) EmitTyping(chatID, userID string, isTyping bool) error {
	f.ops = append(f.ops, "typing:"+chatID)
	return nil
}

func newestFirst(chatID primitive.ObjectID, texts ...string) []*models.Message {
	now := time.Now()
	msgs := make([]*models.Message, 0, len(texts))
	for i, text := range texts {
		msgs = append(msgs, &models.Message{
			ID:        primitive.NewObjectID(),
			ChatID:    chatID,
			Text:      text,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return msgs
}

// Opening a chat fetches history before joining the room, so no pushed
// message can slip in between and be lost.
func TestOpenFetchesHistoryThenJoins(t *testing.T) {
	chatID := primitive.NewObjectID()
	api := &fakeAPI{history: map[string][]*models.Message{
		chatID.Hex(): newestFirst(chatID, "newest", "middle", "oldest"),
	}}
	socket := &fakeSocket{}
	c := New(api, socket, "user-1")

	require.NoError(t, c.Open(context.Background(), chatID.Hex()))

	assert.Equal(t, []string{"join:" + chatID.Hex()}, socket.ops)
	assert.Equal(t, chatID.Hex(), c.ActiveChatID())

	// History arrives newest-first, displays chronological.
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "oldest", msgs[0].Text)
	assert.Equal(t, "newest", msgs[2].Text)
}

func TestOpenLeavesPreviousRoom(t *testing.T) {
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	api := &fakeAPI{history: map[string][]*models.Message{}}
	socket := &fakeSocket{}
	c := New(api, socket, "user-1")

	require.NoError(t, c.Open(context.Background(), first.Hex()))
	require.NoError(t, c.Open(context.Background(), second.Hex()))

	assert.Equal(t, []string{
		"join:" + first.Hex(),
		"leave:" + first.Hex(),
		"join:" + second.Hex(),
	}, socket.ops)
}

// Every send is delivered twice (server publish plus the sender's
// re-emit); the visible list keeps one copy per message id.
func TestOnMessageDedupesById(t *testing.T) {
	chatID := primitive.NewObjectID()
	api := &fakeAPI{history: map[string][]*models.Message{}}
	c := New(api, &fakeSocket{}, "user-1")
	require.NoError(t, c.LoadChats(context.Background()))
	require.NoError(t, c.Open(context.Background(), chatID.Hex()))

	msg := &models.Message{ID: primitive.NewObjectID(), ChatID: chatID, Text: "hi", CreatedAt: time.Now()}
	c.OnMessage(msg)
	c.OnMessage(msg)

	assert.Len(t, c.Messages(), 1)
}

// A push for a non-active chat updates its preview and unread counter
// but never the visible list.
func TestOnMessageInactiveChat(t *testing.T) {
	activeID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	api := &fakeAPI{
		chats:   []*models.Chat{{ID: activeID}, {ID: otherID}},
		history: map[string][]*models.Message{},
	}
	c := New(api, &fakeSocket{}, "user-1")
	require.NoError(t, c.LoadChats(context.Background()))
	require.NoError(t, c.Open(context.Background(), activeID.Hex()))

	msg := &models.Message{ID: primitive.NewObjectID(), ChatID: otherID, Text: "psst", CreatedAt: time.Now()}
	c.OnMessage(msg)

	assert.Empty(t, c.Messages())
	assert.Equal(t, 1, c.UnreadCount(otherID.Hex()))

	chats := c.Chats()
	for _, entry := range chats {
		if entry.Chat.ID == otherID {
			assert.Equal(t, "psst", entry.Chat.LastMessage)
		}
	}
}

func TestOpenResetsUnread(t *testing.T) {
	activeID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	api := &fakeAPI{
		chats:   []*models.Chat{{ID: activeID}, {ID: otherID}},
		history: map[string][]*models.Message{},
	}
	c := New(api, &fakeSocket{}, "user-1")
	require.NoError(t, c.LoadChats(context.Background()))
	require.NoError(t, c.Open(context.Background(), activeID.Hex()))

	c.OnMessage(&models.Message{ID: primitive.NewObjectID(), ChatID: otherID, Text: "one", CreatedAt: time.Now()})
	c.OnMessage(&models.Message{ID: primitive.NewObjectID(), ChatID: otherID, Text: "two", CreatedAt: time.Now()})
	require.Equal(t, 2, c.UnreadCount(otherID.Hex()))

	require.NoError(t, c.Open(context.Background(), otherID.Hex()))
	assert.Equal(t, 0, c.UnreadCount(otherID.Hex()))
}

// Send appends optimistically and re-emits to the room; the later
// server push of the same message is then a no-op.
func TestSendAppendsAndReEmits(t *testing.T) {
	chatID := primitive.NewObjectID()
	api := &fakeAPI{history: map[string][]*models.Message{}}
	socket := &fakeSocket{}
	c := New(api, socket, "user-1")
	require.NoError(t, c.Open(context.Background(), chatID.Hex()))

	msg, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, socket.emitted, 1)
	assert.Equal(t, msg.ID, socket.emitted[0].ID)
	assert.Len(t, c.Messages(), 1)

	// Server publish arrives after the optimistic append.
	c.OnMessage(msg)
	assert.Len(t, c.Messages(), 1)
}

func TestLoadChatsDedupes(t *testing.T) {
	chatID := primitive.NewObjectID()
	api := &fakeAPI{chats: []*models.Chat{{ID: chatID}, {ID: chatID}}}
	c := New(api, &fakeSocket{}, "user-1")

	require.NoError(t, c.LoadChats(context.Background()))

	assert.Len(t, c.Chats(), 1)
}

// Two distinct chats with the same counterpart collapse to one list
// row; the first one wins. Different counterparts stay separate.
func TestLoadChatsDedupesByCounterpart(t *testing.T) {
	bea := models.UserSummary{ID: primitive.NewObjectID(), Name: "Bea"}
	cal := models.UserSummary{ID: primitive.NewObjectID(), Name: "Cal"}

	first := &models.Chat{ID: primitive.NewObjectID(), ParticipantDetails: []models.UserSummary{bea}}
	duplicate := &models.Chat{ID: primitive.NewObjectID(), ParticipantDetails: []models.UserSummary{bea}}
	other := &models.Chat{ID: primitive.NewObjectID(), ParticipantDetails: []models.UserSummary{cal}}

	api := &fakeAPI{chats: []*models.Chat{first, duplicate, other}}
	c := New(api, &fakeSocket{}, "user-1")

	require.NoError(t, c.LoadChats(context.Background()))

	chats := c.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].Chat.ID)
	assert.Equal(t, other.ID, chats[1].Chat.ID)
}

func TestLoadChatsKeepsUnread(t *testing.T) {
	activeID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	api := &fakeAPI{
		chats:   []*models.Chat{{ID: activeID}, {ID: otherID}},
		history: map[string][]*models.Message{},
	}
	c := New(api, &fakeSocket{}, "user-1")
	require.NoError(t, c.LoadChats(context.Background()))
	require.NoError(t, c.Open(context.Background(), activeID.Hex()))

	c.OnMessage(&models.Message{ID: primitive.NewObjectID(), ChatID: otherID, Text: "hi", CreatedAt: time.Now()})
	require.Equal(t, 1, c.UnreadCount(otherID.Hex()))

	// A refresh of the chat list must not wipe local unread state.
	require.NoError(t, c.LoadChats(context.Background()))
	assert.Equal(t, 1, c.UnreadCount(otherID.Hex()))
}

func TestStartDirectChatUpsertsAndOpens(t *testing.T) {
	existingID := primitive.NewObjectID()
	newID := primitive.NewObjectID()
	api := &fakeAPI{
		chats:   []*models.Chat{{ID: existingID}},
		history: map[string][]*models.Message{},
		direct:  &models.Chat{ID: newID},
	}
	socket := &fakeSocket{}
	c := New(api, socket, "user-1")
	require.NoError(t, c.LoadChats(context.Background()))

	chat, err := c.StartDirectChat(context.Background(), primitive.NewObjectID().Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, newID, chat.ID)

	chats := c.Chats()
	require.Len(t, chats, 2)
	// New chats are prepended.
	assert.Equal(t, newID, chats[0].Chat.ID)
	assert.Equal(t, newID.Hex(), c.ActiveChatID())

	// Starting the same chat again must not duplicate the entry.
	_, err = c.StartDirectChat(context.Background(), primitive.NewObjectID().Hex(), nil)
	require.NoError(t, err)
	assert.Len(t, c.Chats(), 2)
}

// A failed history fetch must not tear down the current chat: its room
// subscription and active status survive, so pushes keep arriving.
func TestOpenKeepsSubscriptionOnFetchFailure(t *testing.T) {
	currentID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()
	api := &fakeAPI{history: map[string][]*models.Message{}}
	socket := &fakeSocket{}
	c := New(api, socket, "user-1")
	require.NoError(t, c.Open(context.Background(), currentID.Hex()))

	api.fetchErr = errors.New("history unavailable")
	require.Error(t, c.Open(context.Background(), targetID.Hex()))

	assert.Equal(t, currentID.Hex(), c.ActiveChatID())
	assert.Equal(t, []string{"join:" + currentID.Hex()}, socket.ops)

	// The still-active chat keeps receiving pushes.
	c.OnMessage(&models.Message{ID: primitive.NewObjectID(), ChatID: currentID, Text: "still here", CreatedAt: time.Now()})
	assert.Len(t, c.Messages(), 1)
}

func TestCloseLeavesRoom(t *testing.T) {
	chatID := primitive.NewObjectID()
	api := &fakeAPI{history: map[string][]*models.Message{}}
	socket := &fakeSocket{}
	c := New(api, socket, "user-1")
	require.NoError(t, c.Open(context.Background(), chatID.Hex()))

	c.Close()

	assert.Equal(t, "", c.ActiveChatID())
	assert.Empty(t, c.Messages())
	assert.Equal(t, []string{"join:" + chatID.Hex(), "leave:" + chatID.Hex()}, socket.ops)
}
