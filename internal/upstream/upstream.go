// Package upstream types failures of third-party providers and maps them
// onto the statuses the API returns.
package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// Error is a non-2xx reply or transport failure from a provider. Status is 0
// for transport failures.
type Error struct {
	Provider string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s unreachable: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Status, e.Message)
}

// HTTPStatus maps e onto the status and message returned to the client.
func HTTPStatus(e *Error) (int, string) {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return http.StatusBadGateway, "upstream authentication failed"
	case http.StatusNotFound:
		return http.StatusNotFound, "upstream resource not found"
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "upstream rate limit exceeded"
	case 0:
		return http.StatusBadGateway, "upstream unavailable"
	default:
		if e.Message != "" && e.Status < 500 {
			return http.StatusBadGateway, e.Message
		}
		return http.StatusBadGateway, "upstream request failed"
	}
}

// Message extracts {"error":{"message":...}}, {"error":"..."}, {"message":...}
// or {"detail":...} from an error body, falling back to the raw text.
func Message(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Error   json.RawMessage `json:"error"`
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, field := range []json.RawMessage{body.Error, body.Message, body.Detail} {
			if len(field) == 0 {
				continue
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(field, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var s string
			if json.Unmarshal(field, &s) == nil && s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
