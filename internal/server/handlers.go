// Package server exposes HTTP handlers, including the per-namespace
// WebSocket upgrade endpoints and the health check.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Endpoint binds one WebSocket namespace to its hub and event handler and
// upgrades inbound HTTP requests onto it.
type Endpoint struct {
	hub     *Hub
	handler EventHandler
	log     zerolog.Logger
}

// NewEndpoint creates a WebSocket endpoint for the given hub and handler.
func NewEndpoint(hub *Hub, handler EventHandler, logger zerolog.Logger) *Endpoint {
	return &Endpoint{hub: hub, handler: handler, log: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// ServeHTTP handles WebSocket upgrade requests and registers the resulting
// client with the namespace's hub, which launches the pump goroutines.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, e.hub, e.handler, r.RemoteAddr, e.log)
	e.hub.register <- client
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Lounge server is running!")
}
