package lounge

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind discriminates the two log entry variants. The kind is set at
// construction and never inferred from field shape.
type MessageKind int

const (
	// KindChat is a user-authored chat line.
	KindChat MessageKind = iota
	// KindInfo records a join or leave activity.
	KindInfo
)

// Activity is the event recorded by an info entry.
type Activity string

const (
	// ActivityJoin marks a user's first entry into the room.
	ActivityJoin Activity = "join"
	// ActivityLeave marks a user going fully offline.
	ActivityLeave Activity = "leave"
)

// Message is one entry of the append-only room log: either a chat line
// (Body set) or an info entry (Activity set), selected by Kind.
type Message struct {
	Kind      MessageKind
	ID        string
	UserID    string
	Body      string
	Activity  Activity
	Timestamp time.Time
}

func newChat(userID, body string, at time.Time) Message {
	return Message{
		Kind:      KindChat,
		ID:        uuid.NewString(),
		UserID:    userID,
		Body:      body,
		Timestamp: at,
	}
}

func newInfo(userID string, activity Activity, at time.Time) Message {
	return Message{
		Kind:      KindInfo,
		ID:        uuid.NewString(),
		UserID:    userID,
		Activity:  activity,
		Timestamp: at,
	}
}

// WireChat is the client-facing shape of a chat entry.
type WireChat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WireInfo is the client-facing shape of an info entry.
type WireInfo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Activity  Activity  `json:"activity"`
	Timestamp time.Time `json:"timestamp"`
}

// Wire returns the client-facing view of the entry for response payloads.
func (m Message) Wire() any {
	if m.Kind == KindChat {
		return WireChat{ID: m.ID, UserID: m.UserID, Message: m.Body, Timestamp: m.Timestamp}
	}
	return WireInfo{ID: m.ID, UserID: m.UserID, Activity: m.Activity, Timestamp: m.Timestamp}
}
