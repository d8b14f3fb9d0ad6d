// Package server wires the HTTP routes for the lounge application.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures and returns the application router: health check
// plus one WebSocket endpoint per namespace.
func SetupRoutes(lounge, main http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/", HealthHandler)
	r.Get("/healthz", HealthHandler)
	r.Get("/ws/the-lounge", lounge.ServeHTTP)
	r.Get("/ws/main", main.ServeHTTP)
	return r
}
