package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/hsg0/next.js-chatapp-websockets/modules/gateway"
	"github.com/hsg0/next.js-chatapp-websockets/modules/history"
	"github.com/hsg0/next.js-chatapp-websockets/modules/presence"
	"github.com/hsg0/next.js-chatapp-websockets/modules/registry"
	"github.com/hsg0/next.js-chatapp-websockets/modules/relay"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Relay - rooms, history, typing indicators ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	registryModule := registry.NewModule()
	historyModule := history.NewModule()
	relayModule := relay.NewModule(registryModule, historyModule)
	gatewayModule := gateway.NewModule(relayModule, historyModule)
	presenceModule := presence.NewModule()

	// Registration order matters: the relay pulls its stores from the
	// registry and history modules at Start, and the gateway needs the
	// relay's controller.
	app.Register(registryModule) // session registry + typing tracker
	app.Register(historyModule)  // durable message store (GORM + SQLite)
	app.Register(relayModule)    // lifecycle controller + event emitter
	app.Register(presenceModule) // optional Redis session mirror
	app.Register(gatewayModule)  // Fiber WebSocket gateway

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("WebSocket endpoint: ws://localhost:%s/ws", port)
	log.Println("  client->server events: joinRoom, chat-message, typing, stopTyping")
	log.Println("  server->client events: messageHistory, message, roomUsers, typing, stopTyping")
	log.Println("")
	log.Printf("REST endpoints (http://localhost:%s):", port)
	log.Println("  GET /health                          - Health check")
	log.Println("  GET /api/v1/rooms/:room/history      - Room message history")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
