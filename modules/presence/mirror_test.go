package presence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
)

// setupTestMirror connects to the Redis named by REDIS_ADDR, or skips.
func setupTestMirror(t *testing.T) *Mirror {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	mirror := NewMirror(client, "chat-test:")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mirror.Ping(ctx); err != nil {
		t.Skipf("Redis at %s not reachable: %v", addr, err)
	}

	t.Cleanup(func() { _ = mirror.Close() })
	return mirror
}

func TestMirror_JoinFindLeave(t *testing.T) {
	ctx := context.Background()
	mirror := setupTestMirror(t)

	session := chat.Session{
		ConnID:   "conn-test-1",
		Username: "Ann",
		Room:     "X",
		JoinedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, mirror.Join(ctx, session))
	t.Cleanup(func() { _ = mirror.Leave(ctx, session.ConnID, session.Room) })

	found, err := mirror.Find(ctx, "conn-test-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ann", found.Username)
	assert.Equal(t, "X", found.Room)

	occupants, err := mirror.Occupants(ctx, "X")
	require.NoError(t, err)
	assert.Contains(t, occupants, "conn-test-1")

	require.NoError(t, mirror.Leave(ctx, session.ConnID, session.Room))

	found, err = mirror.Find(ctx, "conn-test-1")
	require.NoError(t, err)
	assert.Nil(t, found, "departed session should be gone from the mirror")

	occupants, err = mirror.Occupants(ctx, "X")
	require.NoError(t, err)
	assert.NotContains(t, occupants, "conn-test-1")
}

func TestMirror_FindUnknownConnection(t *testing.T) {
	mirror := setupTestMirror(t)

	found, err := mirror.Find(context.Background(), "conn-never-seen")
	require.NoError(t, err)
	assert.Nil(t, found)
}
