package relay

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"

	"github.com/hsg0/next.js-chatapp-websockets/events"
	"github.com/hsg0/next.js-chatapp-websockets/modules/history"
	"github.com/hsg0/next.js-chatapp-websockets/modules/registry"
)

// Module wires the lifecycle controller to the registry, the message
// store, and the event bus. Register it after the registry and history
// modules so their stores exist when Start runs.
type Module struct {
	registryModule *registry.Module
	historyModule  *history.Module
	hub            *Hub
	controller     *Controller
	eventBus       mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new relay module.
func NewModule(registryModule *registry.Module, historyModule *history.Module) *Module {
	return &Module{
		registryModule: registryModule,
		historyModule:  historyModule,
		hub:            NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
	}
}

// Start builds the controller from its dependencies.
func (m *Module) Start(_ context.Context) error {
	store := m.historyModule.Repo()
	if store == nil {
		return fmt.Errorf("history module not started")
	}

	m.controller = NewController(
		m.registryModule.Sessions(),
		m.registryModule.Typing(),
		m.hub,
		store,
		m.eventBus,
	)

	log.Println("[relay] Module started")
	return nil
}

// Stop closes all live connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[relay] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.controller != nil,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// Controller returns the lifecycle controller.
func (m *Module) Controller() *Controller {
	return m.controller
}

// GetHub returns the broadcast hub.
func (m *Module) GetHub() *Hub {
	return m.hub
}
