package lounge

import "github.com/lounge-chat/lounge-server/internal/protocol"

// Dispatcher is the transport-side fan-out the lounge addresses its
// outbound events to. The hub in internal/server implements it.
type Dispatcher interface {
	// Join marks the connection as a room member eligible for broadcasts.
	Join(conn protocol.Conn)
	// Broadcast delivers the frame to every room member, excluding the
	// sender unless includeSender is set.
	Broadcast(sender protocol.Conn, frame []byte, includeSender bool)
	// Unicast delivers the frame to a single connection.
	Unicast(target protocol.Conn, frame []byte)
	// JoinedCount reports how many live connections are in the room.
	JoinedCount() int
}
