package lounge

// Request events handled by the lounge namespace. Each one is answered by
// exactly one "<event>-response" frame on the requesting connection.
const (
	EventVerifyToken      = "verify-token"
	EventJoinConversation = "join-conversation"
	EventGetUsers         = "get-users"
	EventGetMessages      = "get-messages"
	EventSendMessage      = "send-message"
	EventUpdateUser       = "update-user"
)

// Broadcast-only events delivered to room members without a request of
// their own.
const (
	EventUpdateUserResponse = "update-user-response"
	EventUpdateInfoResponse = "update-info-response"
	EventUpdateChatResponse = "update-chat-response"
)

func responseEvent(event string) string {
	return event + "-response"
}

type resVerifyToken struct {
	Token string `json:"token"`
}

type resGetUsers struct {
	Users []WireUser `json:"users"`
}

type resGetMessages struct {
	Messages []any `json:"messages"`
}

type resSendMessage struct {
	TempChatID string   `json:"tempChatId"`
	SentChat   WireChat `json:"sentChat"`
}

type resUpdateUser struct {
	User WireUser `json:"user"`
}

type resUpdateChat struct {
	Chat WireChat `json:"chat"`
}

type resUpdateInfo struct {
	Info WireInfo `json:"info"`
}
