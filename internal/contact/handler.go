package contact

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/lounge-chat/lounge-server/internal/protocol"
	"github.com/lounge-chat/lounge-server/internal/redact"
)

// Handler processes the contact namespace events. Mail delivery blocks only
// the submitting connection.
type Handler struct {
	mailer   Mailer
	redactor *redact.Cipher
	log      zerolog.Logger
}

// NewHandler wires the contact-form event handler.
func NewHandler(mailer Mailer, redactor *redact.Cipher, logger zerolog.Logger) *Handler {
	return &Handler{mailer: mailer, redactor: redactor, log: logger}
}

// HandleEvent dispatches one inbound frame.
func (h *Handler) HandleEvent(conn protocol.Conn, event string, data json.RawMessage) {
	if event != EventSubmitContactForm {
		log := h.connLog(conn)
		log.Warn().Str("event", event).Msg("unknown event")
		return
	}
	h.submit(conn, data)
}

// HandleDisconnect is a no-op; the contact namespace has no per-connection
// state.
func (h *Handler) HandleDisconnect(conn protocol.Conn) {
	log := h.connLog(conn)
	log.Info().Msg("disconnected")
}

func (h *Handler) submit(conn protocol.Conn, data json.RawMessage) {
	log := h.connLog(conn)
	log.Info().Msg("submit contact form")

	form, reqErr := parseForm(data)
	if reqErr != nil {
		log.Error().Str("payload", h.redactor.Encrypt(string(data))).Msg("failed to validate request")
		log.Info().Str("reason", reqErr.Message).Msg("submit contact form failed")
		h.replyFailed(conn, reqErr)
		return
	}

	if err := h.mailer.Send(form); err != nil {
		log.Error().Str("error", h.redactor.Encrypt(err.Error())).Msg("failed to send email")
		reqErr := protocol.NewError(503, 0, "an error occured while sending email.")
		log.Info().Str("reason", reqErr.Message).Msg("submit contact form failed")
		h.replyFailed(conn, reqErr)
		return
	}

	log.Info().Msg("submit contact form success")
	frame, err := protocol.Success(EventSubmitContactForm+"-response", nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		return
	}
	conn.Send(frame)
}

func (h *Handler) replyFailed(conn protocol.Conn, reqErr *protocol.Error) {
	frame, err := protocol.Failed(EventSubmitContactForm+"-response", reqErr)
	if err != nil {
		log := h.connLog(conn)
		log.Error().Err(err).Msg("failed to encode failure response")
		return
	}
	conn.Send(frame)
}

func (h *Handler) connLog(conn protocol.Conn) zerolog.Logger {
	return h.log.With().Str("conn", conn.ID()).Logger()
}
