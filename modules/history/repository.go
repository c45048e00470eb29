package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
)

// Repository provides access to the durable message store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append persists a message and returns it with the store-assigned id and
// timestamp. The caller is responsible for trimming; the text must not be
// empty here.
func (r *Repository) Append(ctx context.Context, room, username, text string) (*chat.Message, error) {
	record := MessageRecord{
		Room:     room,
		Username: username,
		Text:     text,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &chat.Message{
		ID:        record.ID,
		Room:      record.Room,
		Username:  record.Username,
		Text:      record.Text,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Recent returns the most recent messages for a room, newest first.
// Timestamp collisions are broken by insertion order via the id column.
func (r *Repository) Recent(ctx context.Context, room string, limit int) ([]chat.Message, error) {
	var records []MessageRecord
	err := r.db.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	messages := make([]chat.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, chat.Message{
			ID:        record.ID,
			Room:      record.Room,
			Username:  record.Username,
			Text:      record.Text,
			CreatedAt: record.CreatedAt,
		})
	}
	return messages, nil
}
