// Package protocol defines the JSON frame format and response envelopes
// shared by every WebSocket namespace, along with the connection interface
// the event handlers address their output to.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame is a single JSON message on the wire, in either direction. Request
// events carry a payload in Data; every request is answered by exactly one
// "<event>-response" frame holding a response envelope.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Error is the coded failure triple carried inside a failed envelope.
// Status is an HTTP-style code, SubStatus a fine-grained per-field code.
type Error struct {
	Status    int    `json:"status"`
	SubStatus int    `json:"subStatus"`
	Message   string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d|%d|%s", e.Status, e.SubStatus, e.Message)
}

// NewError builds a coded request error.
func NewError(status, subStatus int, message string) *Error {
	return &Error{Status: status, SubStatus: subStatus, Message: message}
}

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type failedEnvelope struct {
	Success bool   `json:"success"`
	Error   *Error `json:"error"`
}

// Success encodes a frame for the given event whose envelope marks success
// and carries data. A nil data is sent as an empty object.
func Success(event string, data any) ([]byte, error) {
	if data == nil {
		data = struct{}{}
	}
	return encodeFrame(event, successEnvelope{Success: true, Data: data})
}

// Failed encodes a frame for the given event whose envelope carries the
// coded error.
func Failed(event string, reqErr *Error) ([]byte, error) {
	return encodeFrame(event, failedEnvelope{Success: false, Error: reqErr})
}

func encodeFrame(event string, envelope any) ([]byte, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: payload})
}

// Conn is one live socket as seen by an event handler. Send enqueues a frame
// for delivery and reports false when the connection can no longer accept
// output; handlers treat a false return as a recipient that is already gone.
type Conn interface {
	ID() string
	Send(frame []byte) bool
}
