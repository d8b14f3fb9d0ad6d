package lounge

import (
	"encoding/json"
	"fmt"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

// Request validation mirrors the field-level error contract: each failure
// carries an HTTP-style status plus a stable per-field subStatus code, and
// only the first failing field is reported.

func errInvalidPayload() *protocol.Error {
	return protocol.NewError(400, 999, "payload is invalid.")
}

func errTokenInvalid() *protocol.Error {
	return protocol.NewError(403, 0, "token is invalid.")
}

func decodeObject(data json.RawMessage) (map[string]any, *protocol.Error) {
	if len(data) == 0 {
		return nil, errInvalidPayload()
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, errInvalidPayload()
	}
	return obj, nil
}

// fieldCodes are the subStatus codes for one string field's three failure
// modes. The status is always 400.
type fieldCodes struct {
	base     int
	empty    int
	required int
}

func stringField(obj map[string]any, key, label string, codes fieldCodes, allowNull bool) (string, *protocol.Error) {
	raw, ok := obj[key]
	if !ok {
		return "", protocol.NewError(400, codes.required, fmt.Sprintf("%s is required.", label))
	}
	if raw == nil {
		if allowNull {
			return "", nil
		}
		return "", protocol.NewError(400, codes.base, fmt.Sprintf("%s must be a string.", label))
	}
	value, ok := raw.(string)
	if !ok {
		return "", protocol.NewError(400, codes.base, fmt.Sprintf("%s must be a string.", label))
	}
	if value == "" {
		return "", protocol.NewError(400, codes.empty, fmt.Sprintf("%s must not be empty.", label))
	}
	return value, nil
}

func objectField(obj map[string]any, key, label string, baseCode, requiredCode int) (map[string]any, *protocol.Error) {
	raw, ok := obj[key]
	if !ok {
		return nil, protocol.NewError(400, requiredCode, fmt.Sprintf("%s is required.", label))
	}
	nested, ok := raw.(map[string]any)
	if !ok {
		return nil, protocol.NewError(400, baseCode, fmt.Sprintf("%s must be an object.", label))
	}
	return nested, nil
}

var tokenCodes = fieldCodes{base: 101, empty: 102, required: 103}

// parseTokenRequest validates the `{token}` payload shared by most events.
// verify-token alone allows a null token, which degrades to a fresh
// anonymous identity instead of an error.
func parseTokenRequest(data json.RawMessage, allowNull bool) (string, *protocol.Error) {
	obj, reqErr := decodeObject(data)
	if reqErr != nil {
		return "", reqErr
	}
	return stringField(obj, "token", "'token'", tokenCodes, allowNull)
}

type sendMessageRequest struct {
	token      string
	tempChatID string
	body       string
}

func parseSendMessageRequest(data json.RawMessage) (sendMessageRequest, *protocol.Error) {
	obj, reqErr := decodeObject(data)
	if reqErr != nil {
		return sendMessageRequest{}, reqErr
	}

	token, reqErr := stringField(obj, "token", "'token'", tokenCodes, false)
	if reqErr != nil {
		return sendMessageRequest{}, reqErr
	}

	tempChat, reqErr := objectField(obj, "tempChat", "'tempChat'", 201, 202)
	if reqErr != nil {
		return sendMessageRequest{}, reqErr
	}

	tempChatID, reqErr := stringField(tempChat, "id", "'tempChat.id'", fieldCodes{301, 302, 303}, false)
	if reqErr != nil {
		return sendMessageRequest{}, reqErr
	}

	body, reqErr := stringField(tempChat, "message", "'tempChat.message'", fieldCodes{401, 402, 403}, false)
	if reqErr != nil {
		return sendMessageRequest{}, reqErr
	}

	return sendMessageRequest{token: token, tempChatID: tempChatID, body: body}, nil
}

type updateUserRequest struct {
	token  string
	name   string
	status Status
}

func parseUpdateUserRequest(data json.RawMessage) (updateUserRequest, *protocol.Error) {
	obj, reqErr := decodeObject(data)
	if reqErr != nil {
		return updateUserRequest{}, reqErr
	}

	token, reqErr := stringField(obj, "token", "'token'", tokenCodes, false)
	if reqErr != nil {
		return updateUserRequest{}, reqErr
	}

	userObj, reqErr := objectField(obj, "user", "'user'", 201, 202)
	if reqErr != nil {
		return updateUserRequest{}, reqErr
	}

	name, reqErr := stringField(userObj, "name", "'user.name'", fieldCodes{301, 302, 303}, false)
	if reqErr != nil {
		return updateUserRequest{}, reqErr
	}

	status, reqErr := stringField(userObj, "status", "'user.status'", fieldCodes{401, 402, 403}, false)
	if reqErr != nil {
		return updateUserRequest{}, reqErr
	}
	if Status(status) != StatusOnline && Status(status) != StatusAway {
		return updateUserRequest{}, protocol.NewError(400, 404, "'user.status' must be either 'online' or 'away'.")
	}

	return updateUserRequest{token: token, name: name, status: Status(status)}, nil
}
