package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted after a message has been persisted and
// broadcast to its room.
type MessageSentEvent struct {
	MessageID uint      `json:"message_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// UserJoinedEvent is emitted when a connection completes a join.
type UserJoinedEvent struct {
	ConnID    string    `json:"conn_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a joined connection disconnects.
type UserLeftEvent struct {
	ConnID    string    `json:"conn_id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the relay module.
var (
	// MessageSentV1 is published after a successful message broadcast.
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"relay",
		"MessageSent",
		"v1",
	)

	// UserJoinedV1 is published when a user joins a room.
	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"relay",
		"UserJoined",
		"v1",
	)

	// UserLeftV1 is published when a user leaves a room.
	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"relay",
		"UserLeft",
		"v1",
	)
)
