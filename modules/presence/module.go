package presence

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"

	"github.com/hsg0/next.js-chatapp-websockets/domain/chat"
	"github.com/hsg0/next.js-chatapp-websockets/events"
)

// Module consumes UserJoined/UserLeft events and mirrors them into
// Redis. Disabled unless REDIS_ADDR is set; a single-instance deployment
// works fine with the in-process registry alone.
type Module struct {
	addr   string
	mirror *Mirror
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new presence module.
func NewModule() *Module {
	return &Module{
		addr: os.Getenv("REDIS_ADDR"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Enabled reports whether a Redis address is configured.
func (m *Module) Enabled() bool {
	return m.addr != ""
}

// RegisterEventConsumers registers event handlers for session lifecycle
// events. Registers nothing when disabled.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if !m.Enabled() {
		return nil
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	log.Println("[presence] Registered event consumers: UserJoined, UserLeft")
	return nil
}

// Start connects to Redis when enabled.
func (m *Module) Start(ctx context.Context) error {
	if !m.Enabled() {
		log.Println("[presence] REDIS_ADDR not set - presence mirror disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: m.addr,
	})
	m.mirror = NewMirror(client, "presence:")

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.mirror.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("[presence] Module started - mirroring sessions to %s", m.addr)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.mirror == nil {
		return nil
	}
	if err := m.mirror.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	log.Println("[presence] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if !m.Enabled() {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}
	if err := m.mirror.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.addr,
		},
	}
}

func (m *Module) handleUserJoined(ctx context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	session := chat.Session{
		ConnID:   event.ConnID,
		Username: event.Username,
		Room:     event.Room,
		JoinedAt: event.Timestamp,
	}
	if err := m.mirror.Join(ctx, session); err != nil {
		log.Printf("[presence] Failed to mirror join for %s: %v", event.ConnID, err)
	}
	return nil
}

func (m *Module) handleUserLeft(ctx context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	if err := m.mirror.Leave(ctx, event.ConnID, event.Room); err != nil {
		log.Printf("[presence] Failed to mirror leave for %s: %v", event.ConnID, err)
	}
	return nil
}
