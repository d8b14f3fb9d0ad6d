package lounge

import (
	"time"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

// Status is a user's presence state. Offline users are not deleted; the
// record persists for the process lifetime so identity and history survive
// reconnects.
type Status string

const (
	// StatusOnline means the user has a live connection and is active.
	StatusOnline Status = "online"
	// StatusAway means the user has a live connection but marked
	// themselves away.
	StatusAway Status = "away"
	// StatusReconnect means the connection dropped and the grace window
	// is running.
	StatusReconnect Status = "reconnect"
	// StatusOffline means the grace window elapsed without a reconnect.
	StatusOffline Status = "offline"
)

// User is one known room occupant. ID is stable across reconnects (it is
// the verified token id); Name is assigned once at first join. conn is
// non-nil iff the status is online or away, or reconnect while the grace
// window runs.
type User struct {
	ID         string
	Name       string
	Status     Status
	conn       protocol.Conn
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// WireUser is the client-facing view of a user.
type WireUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Wire returns the client-facing view of the user for response payloads.
func (u *User) Wire() WireUser {
	return WireUser{ID: u.ID, Name: u.Name, Status: u.Status}
}
