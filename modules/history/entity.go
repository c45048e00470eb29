package history

import "time"

// MessageRecord is the GORM model for persisted chat messages. The
// auto-increment ID doubles as the insertion-order tiebreaker when two
// messages in a room share a timestamp.
type MessageRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Room      string    `gorm:"index;not null"`
	Username  string    `gorm:"not null"`
	Text      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName overrides the default table name.
func (MessageRecord) TableName() string {
	return "messages"
}
