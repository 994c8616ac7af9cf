package chatclient

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	internalws "github.com/skillsphere/skillsphere/internal/websocket"
	"github.com/skillsphere/skillsphere/internal/models"
)

// FrameHandler receives decoded frames from the socket read loop. The
// Controller implements it.
type FrameHandler interface {
	OnMessage(msg *models.Message)
	OnTyping(chatID, userID string, isTyping bool)
}

// Socket implements RoomSocket over a gorilla websocket connection to
// the server's /ws endpoint.
type Socket struct {
	conn *websocket.Conn

	mu sync.Mutex // serializes writes
}

// Dial connects to the websocket endpoint. The JWT travels as a query
// parameter, matching the server's URL-token auth path.
func Dial(ctx context.Context, wsURL, token string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"?token="+token, nil)
	if err != nil {
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

// Listen reads frames until the connection closes, dispatching message
// and typing frames to the handler. Blocks; run it in a goroutine.
func (s *Socket) Listen(handler FrameHandler) error {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame internalws.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Warn("Dropping undecodable frame: %v", err)
			continue
		}

		switch frame.Type {
		case internalws.FrameMessage:
			// The frame is the message document plus the tag; decode
			// the same bytes as a message.
			var msg models.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Warn("Dropping malformed message frame: %v", err)
				continue
			}
			handler.OnMessage(&msg)
		case internalws.FrameTyping:
			handler.OnTyping(frame.ChatID, frame.UserID, frame.IsTyping)
		case internalws.FrameError:
			log.Warn("Server error frame: %s", frame.Content)
		}
	}
}

func (s *Socket) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Join subscribes to a chat room.
func (s *Socket) Join(chatID string) error {
	return s.write(internalws.Frame{Type: internalws.FrameJoin, ChatID: chatID})
}

// Leave unsubscribes from a chat room.
func (s *Socket) Leave(chatID string) error {
	return s.write(internalws.Frame{Type: internalws.FrameLeave, ChatID: chatID})
}

// EmitMessage re-emits a persisted message to its room.
func (s *Socket) EmitMessage(msg *models.Message) error {
	return s.write(struct {
		Type string `json:"type"`
		*models.Message
	}{Type: internalws.FrameMessage, Message: msg})
}

// EmitTyping sends a typing indicator to a room. Never persisted.
func (s *Socket) EmitTyping(chatID, userID string, isTyping bool) error {
	return s.write(internalws.Frame{
		Type:     internalws.FrameTyping,
		ChatID:   chatID,
		UserID:   userID,
		IsTyping: isTyping,
	})
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}
