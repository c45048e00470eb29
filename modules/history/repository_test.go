package history

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&MessageRecord{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func TestRepository_Append(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	msg, err := repo.Append(ctx, "X", "Ann", "hello")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if msg.ID == 0 {
		t.Error("Append() message.ID should be assigned by the store")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Append() message.CreatedAt should be assigned by the store")
	}
	if msg.Room != "X" || msg.Username != "Ann" || msg.Text != "hello" {
		t.Errorf("Append() = %+v, want room X, username Ann, text hello", msg)
	}
}

func TestRepository_Append_AssignsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	first, err := repo.Append(ctx, "X", "Ann", "one")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	second, err := repo.Append(ctx, "X", "Ann", "two")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if second.ID <= first.ID {
		t.Errorf("ids not monotonic: first = %d, second = %d", first.ID, second.ID)
	}
}

func TestRepository_Recent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		if _, err := repo.Append(ctx, "X", "Ann", text); err != nil {
			t.Fatalf("Append(%s) error = %v", text, err)
		}
	}
	if _, err := repo.Append(ctx, "Y", "Bob", "other room"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		messages, err := repo.Recent(ctx, "X", 3)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(messages) != 3 {
			t.Fatalf("Recent() count = %d, want 3", len(messages))
		}
		if messages[0].Text != "five" || messages[1].Text != "four" || messages[2].Text != "three" {
			t.Errorf("Recent() order = [%s %s %s], want [five four three]",
				messages[0].Text, messages[1].Text, messages[2].Text)
		}
		// Equal timestamps fall back to insertion order.
		if !(messages[0].ID > messages[1].ID && messages[1].ID > messages[2].ID) {
			t.Errorf("Recent() ids not descending: %d %d %d",
				messages[0].ID, messages[1].ID, messages[2].ID)
		}
	})

	t.Run("scoped to room", func(t *testing.T) {
		messages, err := repo.Recent(ctx, "X", 50)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(messages) != 5 {
			t.Errorf("Recent() count = %d, want 5", len(messages))
		}
		for _, msg := range messages {
			if msg.Room != "X" {
				t.Errorf("Recent() leaked message from room %q", msg.Room)
			}
		}
	})

	t.Run("empty room", func(t *testing.T) {
		messages, err := repo.Recent(ctx, "Z", 50)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(messages) != 0 {
			t.Errorf("Recent() count = %d, want 0", len(messages))
		}
	})
}
