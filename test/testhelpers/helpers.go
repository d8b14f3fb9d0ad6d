// Package testhelpers provides shared utilities for the integration tests:
// starting a fully wired test server, dialing its WebSocket namespaces, and
// exchanging event frames.
package testhelpers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lounge-chat/lounge-server/internal/contact"
	"github.com/lounge-chat/lounge-server/internal/lounge"
	"github.com/lounge-chat/lounge-server/internal/protocol"
	"github.com/lounge-chat/lounge-server/internal/server"
)

// RecordingMailer is a contact.Mailer that records submissions instead of
// delivering them. Err, when set, is returned for every send.
type RecordingMailer struct {
	mu    sync.Mutex
	Err   error
	forms []contact.Form
}

// Send records the form or fails with the configured error.
func (m *RecordingMailer) Send(form contact.Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.forms = append(m.forms, form)
	return nil
}

// Forms returns a copy of the recorded submissions.
func (m *RecordingMailer) Forms() []contact.Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contact.Form(nil), m.forms...)
}

// TestApp is a running lounge server wired for tests, with both WebSocket
// namespaces mounted and a short reconnect grace period.
type TestApp struct {
	Server *httptest.Server
	Mailer *RecordingMailer
	// GracePeriod is the configured reconnect window, exposed so tests can
	// sleep past it.
	GracePeriod time.Duration
}

// StartTestServer builds the full application, the way main does, on an
// httptest server. customize may adjust the config before it is applied;
// origins are extended with the test server's own URL so dials succeed.
func StartTestServer(t *testing.T, customize func(cfg *server.Config)) *TestApp {
	t.Helper()

	cfg := server.NewConfig()
	cfg.JWTSecret = "integration-test-secret"
	cfg.GracePeriod = 150 * time.Millisecond
	if customize != nil {
		customize(cfg)
	}

	logger := zerolog.Nop()
	mailer := &RecordingMailer{}

	loungeHub := server.NewHub(logger)
	loungeHandler := lounge.NewHandler(
		lounge.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		lounge.NewRoom(),
		loungeHub,
		cfg.GracePeriod,
		nil,
		logger,
	)

	mainHub := server.NewHub(logger)
	contactHandler := contact.NewHandler(mailer, nil, logger)

	go loungeHub.Run()
	go mainHub.Run()

	mux := server.SetupRoutes(
		server.NewEndpoint(loungeHub, loungeHandler, logger),
		server.NewEndpoint(mainHub, contactHandler, logger),
	)
	testServer := httptest.NewServer(mux)

	cfg.AllowedOrigins = append([]string{testServer.URL}, cfg.AllowedOrigins...)
	server.SetConfig(cfg)

	t.Cleanup(func() {
		testServer.Close()
		_ = loungeHub.Shutdown(2 * time.Second)
		_ = mainHub.Shutdown(2 * time.Second)
		loungeHandler.Close()
		server.SetConfig(nil)
	})

	return &TestApp{Server: testServer, Mailer: mailer, GracePeriod: cfg.GracePeriod}
}

// wsURL converts the test server's base URL to a ws:// URL for the path.
func (a *TestApp) wsURL(t *testing.T, path string) string {
	t.Helper()
	u, err := url.Parse(a.Server.URL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = path
	return u.String()
}

// dial opens a WebSocket connection with the given Origin header.
func (a *TestApp) dial(t *testing.T, path, origin string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(a.wsURL(t, path), headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ConnectLounge opens a connection to the chat namespace.
func (a *TestApp) ConnectLounge(t *testing.T) *websocket.Conn {
	return a.dial(t, "/ws/the-lounge", a.Server.URL)
}

// ConnectMain opens a connection to the contact-form namespace.
func (a *TestApp) ConnectMain(t *testing.T) *websocket.Conn {
	return a.dial(t, "/ws/main", a.Server.URL)
}

// DialBlockedOrigin attempts a handshake with a disallowed origin and
// returns the resulting error.
func (a *TestApp) DialBlockedOrigin(t *testing.T, path string) error {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", "http://blocked.example.com")

	conn, resp, err := dialer.Dial(a.wsURL(t, path), headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	return err
}

// Envelope is the decoded response envelope of one received frame.
type Envelope struct {
	Success bool            `json:"success"`
	Data    map[string]any  `json:"data"`
	Error   *protocol.Error `json:"error"`
}

// SendEvent writes one event frame with the given payload.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	frame, err := json.Marshal(protocol.Frame{Event: event, Data: payload})
	if err != nil {
		t.Fatalf("Failed to marshal %s frame: %v", event, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// WaitForEvent reads frames until one with the given event arrives and
// returns its envelope. Frames for other events are discarded.
func WaitForEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) Envelope {
	t.Helper()

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Timed out waiting for %s: %v", event, err)
		}

		var frame protocol.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.Fatalf("Received undecodable frame: %v", err)
		}
		if frame.Event != event {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(frame.Data, &env); err != nil {
			t.Fatalf("Failed to decode %s envelope: %v", event, err)
		}
		return env
	}
}

// ExpectNoEvent asserts that no frame for the given event arrives within
// the timeout. Other frames are discarded.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			t.Fatalf("Unexpected error while waiting for absence of %s: %v", event, err)
		}

		var frame protocol.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Event == event {
			t.Fatalf("Received unexpected %s frame", event)
		}
	}
}

// AcquireToken runs the verify-token handshake and returns a signed session
// token for a fresh identity.
func AcquireToken(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	SendEvent(t, conn, "verify-token", map[string]any{"token": nil})
	env := WaitForEvent(t, conn, "verify-token-response", 2*time.Second)
	if !env.Success {
		t.Fatalf("verify-token failed: %v", env.Error)
	}
	token, ok := env.Data["token"].(string)
	if !ok || token == "" {
		t.Fatalf("verify-token returned no token: %v", env.Data)
	}
	return token
}

// JoinLounge runs the join handshake for the token and waits for the direct
// confirmation.
func JoinLounge(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()

	SendEvent(t, conn, "join-conversation", map[string]any{"token": token})
	env := WaitForEvent(t, conn, "join-conversation-response", 2*time.Second)
	if !env.Success {
		t.Fatalf("join-conversation failed: %v", env.Error)
	}
}

// CloseWebSocket performs a graceful close handshake.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
