package backend

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoToken is returned by Login when a 2xx response carries no token.
var ErrNoToken = errors.New("login response has no token")

// APIError is a non-2xx (or 2xx-but-unusable) response from the backend,
// reduced to one human-readable message.
type APIError struct {
	// Endpoint is the path that failed, e.g. "/generate-summary".
	Endpoint string
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Message is the extracted, user-facing message.
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ExtractErrorMessage reduces a failed response body to one message.
// The body is first parsed as JSON and its "error" field used; a body that
// is not JSON is used as raw text; an empty body, or JSON without an
// "error" string, yields fallback.
func ExtractErrorMessage(body []byte, fallback string) string {
	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload.Error.(string); ok && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
		return fallback
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}

// Message returns the user-facing text of err: the APIError message when err
// wraps one, err.Error() otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
