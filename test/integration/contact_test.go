package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lounge-chat/lounge-server/test/testhelpers"
)

func submitForm(t *testing.T, conn *websocket.Conn, form map[string]any) testhelpers.Envelope {
	t.Helper()
	testhelpers.SendEvent(t, conn, "submit-contact-form", form)
	return testhelpers.WaitForEvent(t, conn, "submit-contact-form-response", 2*time.Second)
}

func wellFormedForm() map[string]any {
	return map[string]any{
		"name":     "Jane Doe",
		"email":    "jane@example.com",
		"message":  "I would like to know more about the lounge.",
		"honeypot": "",
	}
}

// TestContactFormDelivered verifies the happy path: a valid submission is
// acknowledged and handed to the mail service.
func TestContactFormDelivered(t *testing.T) {
	app := testhelpers.StartTestServer(t, nil)
	conn := app.ConnectMain(t)

	env := submitForm(t, conn, wellFormedForm())
	if !env.Success {
		t.Fatalf("submission failed: %v", env.Error)
	}

	forms := app.Mailer.Forms()
	if len(forms) != 1 {
		t.Fatalf("mailer received %d forms, want 1", len(forms))
	}
	if forms[0].Email != "jane@example.com" || forms[0].Name != "Jane Doe" {
		t.Errorf("delivered form = %+v", forms[0])
	}
}

// TestContactFormHoneypot verifies that a filled honeypot field is rejected
// without reaching the mail service.
func TestContactFormHoneypot(t *testing.T) {
	app := testhelpers.StartTestServer(t, nil)
	conn := app.ConnectMain(t)

	form := wellFormedForm()
	form["honeypot"] = "I am a bot"

	env := submitForm(t, conn, form)
	if env.Success {
		t.Fatal("bot submission accepted")
	}
	if env.Error.Status != 403 || env.Error.SubStatus != 402 {
		t.Errorf("error = %d|%d, want 403|402", env.Error.Status, env.Error.SubStatus)
	}
	if len(app.Mailer.Forms()) != 0 {
		t.Error("bot submission reached the mailer")
	}
}

// TestContactFormValidation verifies that a malformed field is reported
// with its code and the submission never leaves the server.
func TestContactFormValidation(t *testing.T) {
	app := testhelpers.StartTestServer(t, nil)
	conn := app.ConnectMain(t)

	form := wellFormedForm()
	form["email"] = "not-an-address"

	env := submitForm(t, conn, form)
	if env.Success {
		t.Fatal("invalid submission accepted")
	}
	if env.Error.Status != 400 || env.Error.SubStatus != 205 {
		t.Errorf("error = %d|%d, want 400|205", env.Error.Status, env.Error.SubStatus)
	}
}

// TestContactFormMailServiceDown verifies the error surfaced when delivery
// fails.
func TestContactFormMailServiceDown(t *testing.T) {
	app := testhelpers.StartTestServer(t, nil)
	app.Mailer.Err = errors.New("mail service unavailable")
	conn := app.ConnectMain(t)

	env := submitForm(t, conn, wellFormedForm())
	if env.Success {
		t.Fatal("submission succeeded while the mail service is down")
	}
	if env.Error.Status != 503 {
		t.Errorf("error status = %d, want 503", env.Error.Status)
	}
}

// TestContactNamespaceIgnoresLoungeEvents verifies namespace isolation: a
// chat event on the contact socket gets no response.
func TestContactNamespaceIgnoresLoungeEvents(t *testing.T) {
	app := testhelpers.StartTestServer(t, nil)
	conn := app.ConnectMain(t)

	testhelpers.SendEvent(t, conn, "join-conversation", map[string]any{"token": "anything"})
	testhelpers.ExpectNoEvent(t, conn, "join-conversation-response", 200*time.Millisecond)
}
