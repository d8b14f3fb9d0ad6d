// Package server implements the HTTP and WebSocket transport layer for the
// lounge service.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers. Application logic
// lives in the namespace packages (internal/lounge, internal/contact) and
// plugs in through the EventHandler interface.
package server
