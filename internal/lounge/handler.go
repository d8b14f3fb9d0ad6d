package lounge

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/lounge-chat/lounge-server/internal/protocol"
	"github.com/lounge-chat/lounge-server/internal/redact"
)

// Handler processes the lounge namespace events for all connections. State
// mutations commit inside the Room before any broadcast goes out, so other
// occupants never observe an update ahead of its cause.
type Handler struct {
	tokens     *TokenManager
	room       *Room
	dispatcher Dispatcher
	grace      *graceScheduler
	redactor   *redact.Cipher
	log        zerolog.Logger
}

// NewHandler wires the lounge event handler. gracePeriod is how long a
// dropped connection may reconnect before the user goes offline.
func NewHandler(tokens *TokenManager, room *Room, dispatcher Dispatcher, gracePeriod time.Duration, redactor *redact.Cipher, logger zerolog.Logger) *Handler {
	return &Handler{
		tokens:     tokens,
		room:       room,
		dispatcher: dispatcher,
		grace:      newGraceScheduler(gracePeriod),
		redactor:   redactor,
		log:        logger,
	}
}

// Close stops all pending grace timers.
func (h *Handler) Close() {
	h.grace.stopAll()
}

// HandleEvent dispatches one inbound frame. Unknown events are dropped, as
// they carry no response channel to answer on.
func (h *Handler) HandleEvent(conn protocol.Conn, event string, data json.RawMessage) {
	switch event {
	case EventVerifyToken:
		h.verifyToken(conn, data)
	case EventJoinConversation:
		h.joinConversation(conn, data)
	case EventGetUsers:
		h.getUsers(conn, data)
	case EventGetMessages:
		h.getMessages(conn, data)
	case EventSendMessage:
		h.sendMessage(conn, data)
	case EventUpdateUser:
		h.updateUser(conn, data)
	default:
		log := h.connLog(conn)
		log.Warn().Str("event", event).Msg("unknown event")
	}
}

func (h *Handler) verifyToken(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("verify token")

	token, reqErr := parseTokenRequest(data, true)
	if reqErr != nil {
		h.failValidation(conn, EventVerifyToken, data, reqErr)
		return
	}

	signed, err := h.tokens.VerifyOrIssue(token)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign token")
		h.replyFailed(conn, EventVerifyToken, protocol.NewError(500, 0, "an unexpected error occured."))
		return
	}

	log.Info().Msg("verify token success")
	h.reply(conn, EventVerifyToken, resVerifyToken{Token: signed})
}

func (h *Handler) joinConversation(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("join conversation")

	token, reqErr := parseTokenRequest(data, false)
	if reqErr != nil {
		h.failValidation(conn, EventJoinConversation, data, reqErr)
		return
	}

	userID, err := h.tokens.Verify(token)
	if err != nil {
		h.failAuth(conn, EventJoinConversation, token)
		return
	}

	h.dispatcher.Join(conn)
	result := h.room.Join(userID, conn)
	h.grace.cancel(userID)

	h.broadcast(conn, EventUpdateUserResponse, resUpdateUser{User: result.User}, false)
	if result.Created {
		h.broadcast(conn, EventUpdateInfoResponse, resUpdateInfo{Info: result.JoinInfo.Wire().(WireInfo)}, false)
	}

	log.Info().Msg("join conversation success")
	h.reply(conn, EventJoinConversation, nil)
}

func (h *Handler) getUsers(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("get users")

	token, reqErr := parseTokenRequest(data, false)
	if reqErr != nil {
		h.failValidation(conn, EventGetUsers, data, reqErr)
		return
	}

	if _, err := h.tokens.Verify(token); err != nil {
		h.failAuth(conn, EventGetUsers, token)
		return
	}

	log.Info().Msg("get users success")
	h.reply(conn, EventGetUsers, resGetUsers{Users: h.room.Users()})
}

func (h *Handler) getMessages(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("get messages")

	token, reqErr := parseTokenRequest(data, false)
	if reqErr != nil {
		h.failValidation(conn, EventGetMessages, data, reqErr)
		return
	}

	userID, err := h.tokens.Verify(token)
	if err != nil {
		h.failAuth(conn, EventGetMessages, token)
		return
	}

	visible := h.room.MessagesSince(userID)
	messages := make([]any, 0, len(visible))
	for _, msg := range visible {
		messages = append(messages, msg.Wire())
	}

	log.Info().Msg("get messages success")
	h.reply(conn, EventGetMessages, resGetMessages{Messages: messages})
}

func (h *Handler) sendMessage(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("send message")

	req, reqErr := parseSendMessageRequest(data)
	if reqErr != nil {
		h.failValidation(conn, EventSendMessage, data, reqErr)
		return
	}

	userID, err := h.tokens.Verify(req.token)
	if err != nil {
		h.failAuth(conn, EventSendMessage, req.token)
		return
	}

	chat := h.room.AppendChat(userID, req.body).Wire().(WireChat)

	h.broadcast(conn, EventUpdateChatResponse, resUpdateChat{Chat: chat}, false)

	log.Info().Msg("send message success")
	h.reply(conn, EventSendMessage, resSendMessage{TempChatID: req.tempChatID, SentChat: chat})
}

func (h *Handler) updateUser(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("update user")

	req, reqErr := parseUpdateUserRequest(data)
	if reqErr != nil {
		h.failValidation(conn, EventUpdateUser, data, reqErr)
		return
	}

	userID, err := h.tokens.Verify(req.token)
	if err != nil {
		h.failAuth(conn, EventUpdateUser, req.token)
		return
	}

	user, ok := h.room.UpdateProfile(userID, req.name, req.status)
	if !ok {
		log.Warn().Msg("update user skipped, user not in room")
		return
	}

	log.Info().Msg("update user success")
	// The initiator must see its own canonical state echoed back, so this
	// broadcast includes the sender; there is no direct success payload.
	h.broadcast(conn, EventUpdateUserResponse, resUpdateUser{User: user}, true)
}

// HandleDisconnect marks the owning user as awaiting reconnection and arms
// the grace timer. Connections that never joined the room have no user to
// transition.
func (h *Handler) HandleDisconnect(conn protocol.Conn) {
	log := h.connLog(conn)
	log.Info().Msg("disconnected")

	user, cutoff, ok := h.room.Disconnect(conn)
	if !ok {
		return
	}

	h.broadcast(conn, EventUpdateUserResponse, resUpdateUser{User: user}, true)

	h.grace.schedule(user.ID, func() {
		h.finalizeOffline(user.ID, cutoff)
	})
}

func (h *Handler) finalizeOffline(userID string, cutoff time.Time) {
	result, ok := h.room.FinalizeOffline(userID, cutoff)
	if !ok {
		return
	}

	h.log.Info().Str("user", userID).Msg("grace window elapsed, user offline")

	userFrame, userErr := protocol.Success(EventUpdateUserResponse, resUpdateUser{User: result.User})
	infoFrame, infoErr := protocol.Success(EventUpdateInfoResponse, resUpdateInfo{Info: result.LeaveInfo.Wire().(WireInfo)})
	if userErr != nil || infoErr != nil {
		h.log.Error().AnErr("user", userErr).AnErr("info", infoErr).Msg("failed to encode offline broadcast")
		return
	}

	for _, recipient := range result.Recipients {
		h.dispatcher.Unicast(recipient, userFrame)
		h.dispatcher.Unicast(recipient, infoFrame)
	}

	if h.dispatcher.JoinedCount() == 0 {
		h.room.Reset()
		h.log.Info().Msg("room empty, state reset")
	}
}

func (h *Handler) connLog(conn protocol.Conn) zerolog.Logger {
	return h.log.With().Str("conn", conn.ID()).Logger()
}

func (h *Handler) reply(conn protocol.Conn, event string, data any) {
	frame, err := protocol.Success(responseEvent(event), data)
	if err != nil {
		log := h.connLog(conn)
		log.Error().Err(err).Msg("failed to encode response")
		h.replyFailed(conn, event, protocol.NewError(500, 0, "an unexpected error occured."))
		return
	}
	conn.Send(frame)
}

func (h *Handler) replyFailed(conn protocol.Conn, event string, reqErr *protocol.Error) {
	frame, err := protocol.Failed(responseEvent(event), reqErr)
	if err != nil {
		log := h.connLog(conn)
		log.Error().Err(err).Msg("failed to encode failure response")
		return
	}
	conn.Send(frame)
}

func (h *Handler) broadcast(sender protocol.Conn, event string, data any, includeSender bool) {
	frame, err := protocol.Success(event, data)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("failed to encode broadcast")
		return
	}
	h.dispatcher.Broadcast(sender, frame, includeSender)
}

func (h *Handler) failValidation(conn protocol.Conn, event string, data json.RawMessage, reqErr *protocol.Error) {
	log := h.connLog(conn)
	log.Error().Str("payload", h.redactor.Encrypt(string(data))).Msg("failed to validate request")
	log.Info().Str("reason", reqErr.Message).Msgf("%s failed", event)
	h.replyFailed(conn, event, reqErr)
}

func (h *Handler) failAuth(conn protocol.Conn, event string, token string) {
	log := h.connLog(conn)
	log.Error().Str("token", h.redactor.Encrypt(token)).Msg("failed to verify token")
	reqErr := errTokenInvalid()
	log.Info().Str("reason", reqErr.Message).Msgf("%s failed", event)
	h.replyFailed(conn, event, reqErr)
}
