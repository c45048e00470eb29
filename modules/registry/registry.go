package registry

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
)

// ErrInvalidJoin is returned when a join carries an empty or
// whitespace-only username or room.
var ErrInvalidJoin = errors.New("username and room are required")

// ErrNotFound is returned when no session exists for a connection id.
var ErrNotFound = errors.New("session not found")

// SessionRegistry is the single source of truth for which connection is
// bound to which (username, room). The lifecycle controller is the only
// writer; all derived views (membership, typing) are recomputed after a
// registry mutation completes.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session // connID -> session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*chat.Session),
	}
}

// Open inserts or replaces the session for connID. A connection id is
// unique per transport connection, so replacing is idempotent.
func (r *SessionRegistry) Open(connID, username, room string) (*chat.Session, error) {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)
	if username == "" || room == "" {
		return nil, ErrInvalidJoin
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session := &chat.Session{
		ConnID:   connID,
		Username: username,
		Room:     room,
		JoinedAt: time.Now(),
	}
	r.sessions[connID] = session

	snapshot := *session
	return &snapshot, nil
}

// Lookup returns the session for connID.
func (r *SessionRegistry) Lookup(connID string) (*chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[connID]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *session
	return &snapshot, nil
}

// Close removes and returns the session for connID. The caller uses the
// returned session to learn the room and username for departure notices.
func (r *SessionRegistry) Close(connID string) (*chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[connID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.sessions, connID)

	snapshot := *session
	return &snapshot, nil
}

// OccupantsOf recomputes the occupant roster for a room from scratch.
// Recomputation avoids incremental-update bugs; membership changes are
// rare relative to message volume. The result is sorted for stable
// emission but order carries no meaning to consumers.
func (r *SessionRegistry) OccupantsOf(room string) []chat.RoomUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]chat.RoomUser, 0)
	for _, session := range r.sessions {
		if session.Room == room {
			users = append(users, chat.RoomUser{Username: session.Username})
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
