package relay

import (
	"log"
	"sync"
)

// Hub is the broadcast group: it tracks which connections belong to which
// room and fans room-scoped events out to them. Broadcasts hold the hub
// lock for their full duration, so every observer sees each broadcast as
// a discrete event relative to other broadcasts.
type Hub struct {
	mu    sync.Mutex
	conns map[string]Conn            // connID -> conn
	rooms map[string]map[string]bool // room -> set of connIDs
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		rooms: make(map[string]map[string]bool),
	}
}

// Join enrolls a connection in a room's broadcast group. Enrollment
// happens only after the join transition's persistence steps succeed.
// A connection belongs to at most one room, so rejoining drops any
// earlier enrollment.
func (h *Hub) Join(conn Conn, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn.ID()]; ok {
		h.dropFromRooms(conn.ID())
	}
	h.conns[conn.ID()] = conn
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][conn.ID()] = true
}

// Leave removes a connection from the hub and its room, if any.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, connID)
	h.dropFromRooms(connID)
}

// dropFromRooms removes the connection from every room set. Callers hold
// the hub lock.
func (h *Hub) dropFromRooms(connID string) {
	for room, members := range h.rooms {
		if members[connID] {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// Unicast sends an event to a single enrolled connection. Connections
// that already left are skipped silently; a late persistence completion
// must not write to a gone connection.
func (h *Hub) Unicast(connID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	h.send(conn, event, payload)
}

// Broadcast sends an event to every connection in a room.
func (h *Hub) Broadcast(room, event string, payload any) {
	h.BroadcastExcept(room, "", event, payload)
}

// BroadcastExcept sends an event to every connection in a room except the
// named one. Used for typing indicators, which never echo to their
// originator.
func (h *Hub) BroadcastExcept(room, exceptConnID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for connID := range h.rooms[room] {
		if connID == exceptConnID {
			continue
		}
		if conn, ok := h.conns[connID]; ok {
			h.send(conn, event, payload)
		}
	}
}

func (h *Hub) send(conn Conn, event string, payload any) {
	if err := conn.Send(event, payload); err != nil {
		log.Printf("[relay] Failed to send %s to %s: %v", event, conn.ID(), err)
	}
}

// CloseAll closes every connection. Called on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = make(map[string]Conn)
	h.rooms = make(map[string]map[string]bool)
}

// ClientCount returns the number of enrolled connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// RoomClientCount returns the number of connections in a room.
func (h *Hub) RoomClientCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
