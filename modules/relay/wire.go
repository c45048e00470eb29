package relay

import (
	"time"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
)

// Wire event names. Client->server: joinRoom, chat-message, typing,
// stopTyping. Server->client: messageHistory, message, roomUsers, typing,
// stopTyping. Rooms are scoped server-side from the session; clients never
// address a target.
const (
	EventJoinRoom       = "joinRoom"
	EventChatMessage    = "chat-message"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
	EventMessageHistory = "messageHistory"
	EventMessage        = "message"
	EventRoomUsers      = "roomUsers"
)

// MessagePayload is the server->client body for message and
// messageHistory events.
type MessagePayload struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomUsersPayload is the server->client body for roomUsers events.
type RoomUsersPayload struct {
	Users []chat.RoomUser `json:"users"`
}

// TypingPayload is the server->client body for typing and stopTyping
// events.
type TypingPayload struct {
	Username string `json:"username"`
}

// Conn is a live client connection as the relay sees it. The gateway
// wraps the underlying WebSocket into this interface.
type Conn interface {
	// ID returns the opaque connection id, unique per transport
	// connection and never reused while live.
	ID() string
	// Send delivers a single wire event to this connection.
	Send(event string, payload any) error
	// Close tears down the underlying transport.
	Close() error
}

// notice synthesizes a system message with a fresh timestamp. Notices are
// broadcast or unicast live, never persisted.
func notice(text string) MessagePayload {
	return MessagePayload{
		Username:  chat.SystemUser,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
