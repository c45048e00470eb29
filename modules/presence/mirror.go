// Package presence mirrors live sessions into Redis, providing the
// optional durable session store: session lookup by connection id plus a
// per-room occupancy set. The in-process registry remains ground truth;
// the mirror is for external observers and survives relay restarts only
// as stale data (keys carry a TTL for that reason).
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
)

const sessionTTL = 24 * time.Hour

// Mirror writes session state to Redis.
type Mirror struct {
	client *redis.Client
	prefix string
}

// NewMirror creates a mirror with the given key prefix.
func NewMirror(client *redis.Client, prefix string) *Mirror {
	return &Mirror{client: client, prefix: prefix}
}

func (m *Mirror) connKey(connID string) string {
	return m.prefix + "conn:" + connID
}

func (m *Mirror) roomKey(room string) string {
	return m.prefix + "room:" + room
}

// Join records a session under its connection id and adds the connection
// to the room's occupancy set.
func (m *Mirror) Join(ctx context.Context, session chat.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("presence marshal error: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, m.connKey(session.ConnID), data, sessionTTL)
	pipe.SAdd(ctx, m.roomKey(session.Room), session.ConnID)
	pipe.Expire(ctx, m.roomKey(session.Room), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence join error: %w", err)
	}
	return nil
}

// Leave deletes the session key and removes the connection from the
// room's occupancy set.
func (m *Mirror) Leave(ctx context.Context, connID, room string) error {
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, m.connKey(connID))
	pipe.SRem(ctx, m.roomKey(room), connID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence leave error: %w", err)
	}
	return nil
}

// Find returns the mirrored session for a connection id, or nil when
// none exists.
func (m *Mirror) Find(ctx context.Context, connID string) (*chat.Session, error) {
	data, err := m.client.Get(ctx, m.connKey(connID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("presence find error: %w", err)
	}

	var session chat.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("presence unmarshal error: %w", err)
	}
	return &session, nil
}

// Occupants returns the connection ids mirrored for a room.
func (m *Mirror) Occupants(ctx context.Context, room string) ([]string, error) {
	members, err := m.client.SMembers(ctx, m.roomKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence occupants error: %w", err)
	}
	return members, nil
}

// Ping checks the Redis connection.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
