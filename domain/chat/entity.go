package chat

import "time"

// SystemUser is the reserved author name for synthesized notices
// (welcome, joined, left, errors). Notices are never persisted.
const SystemUser = "system"

// Session binds a live connection id to a username and room. A connection
// id maps to exactly one (username, room) for its entire lifetime.
type Session struct {
	ConnID   string    `json:"conn_id"`
	Username string    `json:"username"`
	Room     string    `json:"room"`
	JoinedAt time.Time `json:"joined_at"`
}

// Message is a persisted chat message. Text is trimmed before storage and
// never empty; messages are immutable once stored.
type Message struct {
	ID        uint      `json:"id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomUser is a single entry in a room's occupant roster.
type RoomUser struct {
	Username string `json:"username"`
}
