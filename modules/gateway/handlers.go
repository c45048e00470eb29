package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hsg0/next.js-chatapp-websockets/modules/relay"
)

// Envelope is the JSON frame exchanged over the WebSocket in both
// directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JoinPayload is the client payload for joinRoom.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// wsConn adapts a Fiber WebSocket connection to the relay.Conn interface.
// The write mutex guards against interleaved frames: the connection's own
// read loop and room broadcasts from other goroutines both write here.
type wsConn struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Envelope{Event: event, Payload: data})
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) sendError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteJSON(Envelope{Event: "error", Error: message})
}

// handleWebSocket owns one connection's event stream. The single read
// loop guarantees a connection's own events are processed in the order
// received; disconnect runs exactly once in the defer and retires the
// connection id for good.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	wc := &wsConn{id: connID, conn: c}

	defer func() {
		m.relayModule.Controller().Disconnect(connID)
		_ = c.Close()
		m.logger.Info("WebSocket disconnected", "connID", connID)
	}()

	m.logger.Info("WebSocket connected", "connID", connID)

	ctrl := m.relayModule.Controller()
	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Error("WebSocket read error", "connID", connID, "error", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(msgBytes, &env); err != nil {
			wc.sendError("invalid message format")
			continue
		}

		m.dispatch(ctrl, wc, env)
	}
}

// dispatch routes one client event to the lifecycle controller.
func (m *Module) dispatch(ctrl *relay.Controller, wc *wsConn, env Envelope) {
	switch env.Event {
	case relay.EventJoinRoom:
		var payload JoinPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			wc.sendError("invalid joinRoom payload")
			return
		}
		ctrl.Join(context.Background(), wc, payload.Username, payload.Room)
	case relay.EventChatMessage:
		var text string
		if err := json.Unmarshal(env.Payload, &text); err != nil {
			wc.sendError("invalid chat-message payload")
			return
		}
		ctrl.ChatMessage(context.Background(), wc.ID(), text)
	case relay.EventTyping:
		ctrl.Typing(wc.ID())
	case relay.EventStopTyping:
		ctrl.StopTyping(wc.ID())
	default:
		wc.sendError("unknown event: " + env.Event)
	}
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "healthy",
		"connected_clients": m.relayModule.GetHub().ClientCount(),
	})
}

// getHistory handles GET /api/v1/rooms/:room/history. The store returns
// newest-first; the response is chronological like the WebSocket replay.
func (m *Module) getHistory(c *fiber.Ctx) error {
	room := c.Params("room")
	if room == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "room is required",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	recent, err := m.historyModule.Repo().Recent(c.UserContext(), room, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load history",
		})
	}

	messages := make([]relay.MessagePayload, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		messages = append(messages, relay.MessagePayload{
			Username:  recent[i].Username,
			Text:      recent[i].Text,
			CreatedAt: recent[i].CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"room":     room,
		"messages": messages,
		"total":    len(messages),
	})
}
