package contact

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

type fakeConn struct {
	mu     sync.Mutex
	id     string
	frames [][]byte
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

type fakeMailer struct {
	mu    sync.Mutex
	forms []Form
	err   error
}

func (m *fakeMailer) Send(form Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.forms = append(m.forms, form)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *protocol.Error `json:"error"`
}

func lastResponse(t *testing.T, conn *fakeConn) envelope {
	t.Helper()
	frames := conn.sent()
	if len(frames) == 0 {
		t.Fatal("no frames sent")
	}
	var frame protocol.Frame
	if err := json.Unmarshal(frames[len(frames)-1], &frame); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if frame.Event != "submit-contact-form-response" {
		t.Fatalf("event = %q, want submit-contact-form-response", frame.Event)
	}
	var env envelope
	if err := json.Unmarshal(frame.Data, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return env
}

func validForm() string {
	return `{"name":"Jane Doe","email":"jane@example.com","message":"I would like to get in touch about the lounge.","honeypot":""}`
}

func TestSubmitDeliversValidForm(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, nil, zerolog.Nop())
	conn := &fakeConn{id: "c1"}

	h.HandleEvent(conn, EventSubmitContactForm, json.RawMessage(validForm()))

	env := lastResponse(t, conn)
	if !env.Success {
		t.Fatalf("submission failed: %v", env.Error)
	}
	if string(env.Data) != "{}" {
		t.Errorf("data = %s, want empty object", env.Data)
	}
	if len(mailer.forms) != 1 || mailer.forms[0].Email != "jane@example.com" {
		t.Errorf("mailer received %+v", mailer.forms)
	}
}

func TestSubmitMailerFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	h := NewHandler(mailer, nil, zerolog.Nop())
	conn := &fakeConn{id: "c1"}

	h.HandleEvent(conn, EventSubmitContactForm, json.RawMessage(validForm()))

	env := lastResponse(t, conn)
	if env.Success {
		t.Fatal("expected failure")
	}
	if env.Error.Status != 503 || env.Error.SubStatus != 0 {
		t.Errorf("error = %v, want 503|0", env.Error)
	}
}

func TestSubmitValidationCodes(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus int
		wantSub    int
	}{
		{
			name:       "not an object",
			payload:    `[]`,
			wantStatus: 400, wantSub: 999,
		},
		{
			name:       "name too short",
			payload:    `{"name":"J","email":"jane@example.com","message":"A long enough message body.","honeypot":""}`,
			wantStatus: 400, wantSub: 103,
		},
		{
			name:       "name with digits",
			payload:    `{"name":"Jane 99","email":"jane@example.com","message":"A long enough message body.","honeypot":""}`,
			wantStatus: 400, wantSub: 105,
		},
		{
			name:       "email malformed",
			payload:    `{"name":"Jane Doe","email":"not-an-email","message":"A long enough message body.","honeypot":""}`,
			wantStatus: 400, wantSub: 205,
		},
		{
			name:       "email missing",
			payload:    `{"name":"Jane Doe","message":"A long enough message body.","honeypot":""}`,
			wantStatus: 400, wantSub: 206,
		},
		{
			name:       "message too short",
			payload:    `{"name":"Jane Doe","email":"jane@example.com","message":"hi","honeypot":""}`,
			wantStatus: 400, wantSub: 303,
		},
		{
			name:       "honeypot missing",
			payload:    `{"name":"Jane Doe","email":"jane@example.com","message":"A long enough message body."}`,
			wantStatus: 400, wantSub: 403,
		},
		{
			name:       "honeypot filled",
			payload:    `{"name":"Jane Doe","email":"jane@example.com","message":"A long enough message body.","honeypot":"bot"}`,
			wantStatus: 403, wantSub: 402,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{}
			h := NewHandler(mailer, nil, zerolog.Nop())
			conn := &fakeConn{id: "c1"}

			h.HandleEvent(conn, EventSubmitContactForm, json.RawMessage(tt.payload))

			env := lastResponse(t, conn)
			if env.Success {
				t.Fatal("expected failure")
			}
			if env.Error.Status != tt.wantStatus || env.Error.SubStatus != tt.wantSub {
				t.Errorf("error = %d|%d, want %d|%d", env.Error.Status, env.Error.SubStatus, tt.wantStatus, tt.wantSub)
			}
			if len(mailer.forms) != 0 {
				t.Error("invalid form reached the mailer")
			}
		})
	}
}

func TestUnknownEventDropped(t *testing.T) {
	h := NewHandler(&fakeMailer{}, nil, zerolog.Nop())
	conn := &fakeConn{id: "c1"}

	h.HandleEvent(conn, "send-message", json.RawMessage(`{}`))

	if len(conn.sent()) != 0 {
		t.Error("unknown event produced a response")
	}
}
