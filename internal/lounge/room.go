package lounge

import (
	"sync"
	"time"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

// Room is the single shared conversation: the set of known users and the
// append-only message log. It is the only shared mutable state in the
// system; every transition runs to completion under one mutex, so the grace
// scheduler and the per-connection handlers always observe the latest
// state, never a stale snapshot.
type Room struct {
	mu       sync.Mutex
	users    []*User
	messages []Message
	now      func() time.Time
}

// NewRoom creates an empty room.
func NewRoom() *Room {
	return &Room{now: func() time.Time { return time.Now().UTC() }}
}

// JoinResult reports what a join transition changed.
type JoinResult struct {
	User    WireUser
	Created bool
	// JoinInfo is the info entry appended to the log; only set when
	// Created, since a reconnect is not a join event.
	JoinInfo Message
}

// Join applies the join transition for the verified token id. A first join
// creates the user with a fresh display name and logs an info entry; a
// rejoin flips the user back to online and attaches the new connection,
// with the most recent connection winning.
func (r *Room) Join(id string, conn protocol.Conn) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existing := r.findByID(id); existing != nil {
		existing.Status = StatusOnline
		existing.conn = conn
		existing.ModifiedAt = now
		return JoinResult{User: existing.Wire()}
	}

	user := &User{
		ID:         id,
		Name:       randomDisplayName(),
		Status:     StatusOnline,
		conn:       conn,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	r.users = append(r.users, user)

	joinInfo := newInfo(id, ActivityJoin, now)
	r.messages = append(r.messages, joinInfo)

	return JoinResult{User: user.Wire(), Created: true, JoinInfo: joinInfo}
}

// UpdateProfile mutates the user's display name and presence status. It
// reports false when no user with the id exists, in which case nothing
// changed.
func (r *Room) UpdateProfile(id, name string, status Status) (WireUser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByID(id)
	if user == nil {
		return WireUser{}, false
	}
	user.Name = name
	user.Status = status
	user.ModifiedAt = r.now()
	return user.Wire(), true
}

// Users returns every known occupant, in join order.
func (r *Room) Users() []WireUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]WireUser, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user.Wire())
	}
	return out
}

// MessagesSince returns the log entries visible to the given user: every
// entry whose timestamp is at or after the moment the identity was first
// created, in log order. An unknown user sees nothing rather than an error.
func (r *Room) MessagesSince(id string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByID(id)
	if user == nil {
		return nil
	}

	out := make([]Message, 0, len(r.messages))
	for _, msg := range r.messages {
		if !msg.Timestamp.Before(user.CreatedAt) {
			out = append(out, msg)
		}
	}
	return out
}

// AppendChat appends a chat entry authored by userID and returns it.
func (r *Room) AppendChat(userID, body string) Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat := newChat(userID, body, r.now())
	r.messages = append(r.messages, chat)
	return chat
}

// Disconnect marks the user owning conn as awaiting reconnection. It
// returns the updated user and the modification timestamp captured at this
// instant, which keys the grace window's notification cutoff. It reports
// false when no user owns the connection (the socket never joined).
func (r *Room) Disconnect(conn protocol.Conn) (WireUser, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByConn(conn)
	if user == nil {
		return WireUser{}, time.Time{}, false
	}
	user.Status = StatusReconnect
	user.ModifiedAt = r.now()
	return user.Wire(), user.ModifiedAt, true
}

// OfflineResult reports what the offline transition changed and who must
// hear about it.
type OfflineResult struct {
	User      WireUser
	LeaveInfo Message
	// Recipients are the currently connected users whose identity was
	// created before the leaver's disconnect instant. Later joiners are
	// deliberately not notified.
	Recipients []protocol.Conn
}

// FinalizeOffline completes the reconnect-to-offline transition when the
// grace window elapses. It re-reads the registry: if the user reconnected
// in the meantime the transition is abandoned and it reports false.
func (r *Room) FinalizeOffline(id string, cutoff time.Time) (OfflineResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByID(id)
	if user == nil || user.Status != StatusReconnect {
		return OfflineResult{}, false
	}

	user.Status = StatusOffline
	user.conn = nil
	user.ModifiedAt = r.now()

	leaveInfo := newInfo(id, ActivityLeave, r.now())
	r.messages = append(r.messages, leaveInfo)

	var recipients []protocol.Conn
	for _, other := range r.users {
		if other.Status != StatusOffline && other.conn != nil && other.CreatedAt.Before(cutoff) {
			recipients = append(recipients, other.conn)
		}
	}

	return OfflineResult{User: user.Wire(), LeaveInfo: leaveInfo, Recipients: recipients}, true
}

// Reset drops all users and messages. This runs when the last connection
// leaves the room and is the intentional data-loss boundary of the system.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = nil
	r.messages = nil
}

func (r *Room) findByID(id string) *User {
	for _, user := range r.users {
		if user.ID == id {
			return user
		}
	}
	return nil
}

func (r *Room) findByConn(conn protocol.Conn) *User {
	for _, user := range r.users {
		if user.conn == conn {
			return user
		}
	}
	return nil
}
