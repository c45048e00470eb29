package registry

import "sync"

// TypingTracker holds the last known composing flag per (room, username).
// The client decides when to emit start/stop (local debounce); the server
// is a pure relay and never expires flags on its own. The lifecycle
// controller stops any outstanding flag when a connection goes away.
type TypingTracker struct {
	mu     sync.Mutex
	typing map[string]map[string]bool // room -> set of usernames
}

// NewTypingTracker creates an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		typing: make(map[string]map[string]bool),
	}
}

// Start flags (room, username) as composing. Returns true when the state
// actually changed; a repeated start is a no-op.
func (t *TypingTracker) Start(room, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.typing[room] == nil {
		t.typing[room] = make(map[string]bool)
	}
	if t.typing[room][username] {
		return false
	}
	t.typing[room][username] = true
	return true
}

// Stop clears the composing flag. Returns true when the state actually
// changed; a repeated stop is a no-op.
func (t *TypingTracker) Stop(room, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.typing[room]
	if !ok || !users[username] {
		return false
	}
	delete(users, username)
	if len(users) == 0 {
		delete(t.typing, room)
	}
	return true
}

// IsTyping reports whether (room, username) is currently flagged.
func (t *TypingTracker) IsTyping(room, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing[room][username]
}

// TypingIn returns the usernames currently flagged as composing in a room.
func (t *TypingTracker) TypingIn(room string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := make([]string, 0, len(t.typing[room]))
	for username := range t.typing[room] {
		users = append(users, username)
	}
	return users
}
