// Package contact implements the contact-form intake namespace: validate
// the submitted form and forward it to the mail service. It holds no state
// of its own.
package contact

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

// Form is a validated contact-form submission.
type Form struct {
	Name    string
	Email   string
	Message string
}

const (
	// EventSubmitContactForm is the single request event of the namespace.
	EventSubmitContactForm = "submit-contact-form"

	nameMinLen    = 2
	nameMaxLen    = 120
	emailMinLen   = 3
	emailMaxLen   = 320
	messageMinLen = 15
	messageMaxLen = 2000
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]*$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func parseForm(data json.RawMessage) (Form, *protocol.Error) {
	if len(data) == 0 {
		return Form{}, protocol.NewError(400, 999, "payload is invalid.")
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return Form{}, protocol.NewError(400, 999, "payload is invalid.")
	}

	name, reqErr := requireString(obj, "name", "'name'", 101, 102, 106)
	if reqErr != nil {
		return Form{}, reqErr
	}
	if len(name) < nameMinLen || len(name) > nameMaxLen {
		code := 103
		if len(name) > nameMaxLen {
			code = 104
		}
		return Form{}, protocol.NewError(400, code, fmt.Sprintf("'name' length must be between %d and %d characters.", nameMinLen, nameMaxLen))
	}
	if !namePattern.MatchString(name) {
		return Form{}, protocol.NewError(400, 105, "'name' must contain only letters and spaces.")
	}

	email, reqErr := requireString(obj, "email", "'email'", 201, 202, 206)
	if reqErr != nil {
		return Form{}, reqErr
	}
	if len(email) < emailMinLen || len(email) > emailMaxLen {
		code := 203
		if len(email) > emailMaxLen {
			code = 204
		}
		return Form{}, protocol.NewError(400, code, fmt.Sprintf("'email' length must be between %d and %d characters.", emailMinLen, emailMaxLen))
	}
	if !emailPattern.MatchString(email) {
		return Form{}, protocol.NewError(400, 205, "'email' must be a valid email address.")
	}

	message, reqErr := requireString(obj, "message", "'message'", 301, 302, 305)
	if reqErr != nil {
		return Form{}, reqErr
	}
	if len(message) < messageMinLen || len(message) > messageMaxLen {
		code := 303
		if len(message) > messageMaxLen {
			code = 304
		}
		return Form{}, protocol.NewError(400, code, fmt.Sprintf("'message' length must be between %d and %d characters.", messageMinLen, messageMaxLen))
	}

	// The honeypot must exist and be empty; a filled honeypot is a bot.
	honeypotRaw, ok := obj["honeypot"]
	if !ok {
		return Form{}, protocol.NewError(400, 403, "'honeypot' is required.")
	}
	honeypot, ok := honeypotRaw.(string)
	if !ok {
		return Form{}, protocol.NewError(400, 401, "'honeypot' must be a string.")
	}
	if honeypot != "" {
		return Form{}, protocol.NewError(403, 402, "'honeypot' must be empty.")
	}

	return Form{Name: name, Email: email, Message: message}, nil
}

func requireString(obj map[string]any, key, label string, baseCode, emptyCode, requiredCode int) (string, *protocol.Error) {
	raw, ok := obj[key]
	if !ok {
		return "", protocol.NewError(400, requiredCode, fmt.Sprintf("%s is required.", label))
	}
	value, ok := raw.(string)
	if !ok {
		return "", protocol.NewError(400, baseCode, fmt.Sprintf("%s must be a string.", label))
	}
	if value == "" {
		return "", protocol.NewError(400, emptyCode, fmt.Sprintf("%s must not be empty.", label))
	}
	return value, nil
}
