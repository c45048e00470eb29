package relay

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-monolith/mono"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
	"github.com/hsg0/next.js-chatapp-websockets/events"
	"github.com/hsg0/next.js-chatapp-websockets/modules/registry"
)

// historyLimit is the number of persisted messages replayed to a joiner.
const historyLimit = 50

// MessageStore is the durable message store the pipeline consumes.
// Recent returns newest-first; the pipeline reverses before delivery.
type MessageStore interface {
	Append(ctx context.Context, room, username, text string) (*chat.Message, error)
	Recent(ctx context.Context, room string, limit int) ([]chat.Message, error)
}

// Controller orchestrates the connection lifecycle: it is the only writer
// of the session registry, drives the typing tracker and message pipeline,
// and owns the ordering of broadcasts within each transition. Events for a
// single connection arrive in order from the gateway's read loop; a
// per-room mutex serializes transitions that touch the same room.
type Controller struct {
	sessions *registry.SessionRegistry
	typing   *registry.TypingTracker
	hub      *Hub
	store    MessageStore
	bus      mono.EventBus
	logger   *slog.Logger

	roomMu    sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewController creates a lifecycle controller. bus may be nil; lifecycle
// events are then not published.
func NewController(sessions *registry.SessionRegistry, typing *registry.TypingTracker, hub *Hub, store MessageStore, bus mono.EventBus) *Controller {
	return &Controller{
		sessions:  sessions,
		typing:    typing,
		hub:       hub,
		store:     store,
		bus:       bus,
		logger:    slog.Default(),
		roomLocks: make(map[string]*sync.Mutex),
	}
}

// lockRoom serializes transitions per room. Returns the unlock func.
func (c *Controller) lockRoom(room string) func() {
	c.roomMu.Lock()
	lock, ok := c.roomLocks[room]
	if !ok {
		lock = &sync.Mutex{}
		c.roomLocks[room] = lock
	}
	c.roomMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Join handles the joinRoom event. Fixed ordering: open session, fetch
// history, enroll in the broadcast group, deliver history, deliver
// welcome, announce to the rest of the room, emit membership. A store
// failure aborts the whole transition before enrollment, so no partial
// join is ever visible to other users.
func (c *Controller) Join(ctx context.Context, conn Conn, username, room string) {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)
	if username == "" || room == "" {
		_ = conn.Send(EventMessage, notice("username and room are required"))
		return
	}

	// A rejoin on a live connection switches rooms. The old room sees a
	// normal departure (typing flag cleared, left notice, fresh roster)
	// before the new room sees the join. Locked per room, not nested.
	if prev, err := c.sessions.Lookup(conn.ID()); err == nil && prev.Room != room {
		c.Disconnect(conn.ID())
	}

	unlock := c.lockRoom(room)
	defer unlock()

	session, err := c.sessions.Open(conn.ID(), username, room)
	if err != nil {
		_ = conn.Send(EventMessage, notice("username and room are required"))
		return
	}

	recent, err := c.store.Recent(ctx, room, historyLimit)
	if err != nil {
		c.logger.Error("history fetch failed", "room", room, "error", err)
		_, _ = c.sessions.Close(conn.ID())
		_ = conn.Send(EventMessage, notice("failed to join the chat"))
		return
	}

	// Store returns newest-first; clients want chronological order.
	replay := make([]MessagePayload, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		replay = append(replay, MessagePayload{
			Username:  recent[i].Username,
			Text:      recent[i].Text,
			CreatedAt: recent[i].CreatedAt,
		})
	}

	c.hub.Join(conn, room)

	_ = conn.Send(EventMessageHistory, replay)
	_ = conn.Send(EventMessage, notice("Welcome to the chat!"))
	c.hub.BroadcastExcept(room, conn.ID(), EventMessage, notice(username+" has joined the chat."))
	c.emitRoomUsers(room)

	c.publishUserJoined(session)
	c.logger.Info("user joined", "username", username, "room", room, "connID", conn.ID())
}

// ChatMessage handles the chat-message event. An unknown connection or a
// whitespace-only text is dropped silently; both are benign races or
// client-side no-ops, not errors. Sending clears the typing flag, and the
// stopTyping broadcast goes out strictly before the message broadcast.
func (c *Controller) ChatMessage(ctx context.Context, connID, rawText string) {
	session, err := c.sessions.Lookup(connID)
	if err != nil {
		return
	}

	unlock := c.lockRoom(session.Room)
	defer unlock()

	text := strings.TrimSpace(rawText)
	if text == "" {
		return
	}

	if c.typing.Stop(session.Room, session.Username) {
		c.hub.BroadcastExcept(session.Room, connID, EventStopTyping, TypingPayload{Username: session.Username})
	}

	msg, err := c.store.Append(ctx, session.Room, session.Username, text)
	if err != nil {
		c.logger.Error("message append failed", "room", session.Room, "error", err)
		c.hub.Unicast(connID, EventMessage, notice("failed to deliver message"))
		return
	}

	c.hub.Broadcast(session.Room, EventMessage, MessagePayload{
		Username:  msg.Username,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})

	c.publishMessageSent(msg)
}

// Typing handles the typing event. The room and username are inferred
// from the session; without one the event is ignored.
func (c *Controller) Typing(connID string) {
	session, err := c.sessions.Lookup(connID)
	if err != nil {
		return
	}

	unlock := c.lockRoom(session.Room)
	defer unlock()

	if c.typing.Start(session.Room, session.Username) {
		c.hub.BroadcastExcept(session.Room, connID, EventTyping, TypingPayload{Username: session.Username})
	}
}

// StopTyping handles the stopTyping event. Idempotent like Typing.
func (c *Controller) StopTyping(connID string) {
	session, err := c.sessions.Lookup(connID)
	if err != nil {
		return
	}

	unlock := c.lockRoom(session.Room)
	defer unlock()

	if c.typing.Stop(session.Room, session.Username) {
		c.hub.BroadcastExcept(session.Room, connID, EventStopTyping, TypingPayload{Username: session.Username})
	}
}

// Disconnect retires a connection. A connection that never completed a
// join terminates quietly. Any outstanding typing flag is cleared without
// an explicit stop signal; the server holds no timeout authority, so this
// is the only safety net against stuck indicators.
func (c *Controller) Disconnect(connID string) {
	session, err := c.sessions.Lookup(connID)
	if err != nil {
		c.hub.Leave(connID)
		return
	}

	unlock := c.lockRoom(session.Room)
	defer unlock()

	if _, err := c.sessions.Close(connID); err != nil {
		return
	}
	c.hub.Leave(connID)
	c.typing.Stop(session.Room, session.Username)

	c.hub.Broadcast(session.Room, EventMessage, notice(session.Username+" has left the chat."))
	c.emitRoomUsers(session.Room)

	c.publishUserLeft(session)
	c.logger.Info("user left", "username", session.Username, "room", session.Room, "connID", connID)
}

// emitRoomUsers recomputes the roster from the registry and broadcasts it
// to everyone in the room, including whoever just joined.
func (c *Controller) emitRoomUsers(room string) {
	users := c.sessions.OccupantsOf(room)
	c.hub.Broadcast(room, EventRoomUsers, RoomUsersPayload{Users: users})
}

// Bus event side channel. Room broadcasts never route through the bus;
// these are for out-of-band consumers like the presence mirror.

func (c *Controller) publishMessageSent(msg *chat.Message) {
	if c.bus == nil {
		return
	}
	event := events.MessageSentEvent{
		MessageID: msg.ID,
		Room:      msg.Room,
		Username:  msg.Username,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	if err := events.MessageSentV1.Publish(c.bus, event, nil); err != nil {
		slog.Warn("Failed to publish MessageSent event", "error", err)
	}
}

func (c *Controller) publishUserJoined(session *chat.Session) {
	if c.bus == nil {
		return
	}
	event := events.UserJoinedEvent{
		ConnID:    session.ConnID,
		Room:      session.Room,
		Username:  session.Username,
		Timestamp: time.Now(),
	}
	if err := events.UserJoinedV1.Publish(c.bus, event, nil); err != nil {
		slog.Warn("Failed to publish UserJoined event", "error", err)
	}
}

func (c *Controller) publishUserLeft(session *chat.Session) {
	if c.bus == nil {
		return
	}
	event := events.UserLeftEvent{
		ConnID:    session.ConnID,
		Room:      session.Room,
		Username:  session.Username,
		Timestamp: time.Now(),
	}
	if err := events.UserLeftV1.Publish(c.bus, event, nil); err != nil {
		slog.Warn("Failed to publish UserLeft event", "error", err)
	}
}
