package registry

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module owns the in-process session registry and typing tracker. Both are
// purely in-memory; durability across restarts is out of scope for a
// single-instance deployment.
type Module struct {
	sessions *SessionRegistry
	typing   *TypingTracker
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new registry module.
func NewModule() *Module {
	return &Module{
		sessions: NewSessionRegistry(),
		typing:   NewTypingTracker(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[registry] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[registry] Module stopped - %d sessions were live", m.sessions.Count())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"live_sessions": m.sessions.Count(),
		},
	}
}

// Sessions returns the session registry.
func (m *Module) Sessions() *SessionRegistry {
	return m.sessions
}

// Typing returns the typing tracker.
func (m *Module) Typing() *TypingTracker {
	return m.typing
}
