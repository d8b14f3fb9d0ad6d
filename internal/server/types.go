// Package server defines shared types and utility helpers that are reused
// across client and hub logic.
package server

import (
	"encoding/json"
	"strings"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

// EventHandler is one namespace's application logic. The client pumps feed
// it decoded frames; it addresses replies and broadcasts through the
// protocol.Conn and the hub.
type EventHandler interface {
	HandleEvent(conn protocol.Conn, event string, data json.RawMessage)
	HandleDisconnect(conn protocol.Conn)
}

// BroadcastMessage encapsulates a frame being fanned out by the hub,
// including the originating connection so it can be excluded from delivery.
type BroadcastMessage struct {
	Sender        protocol.Conn
	Payload       []byte
	IncludeSender bool
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
