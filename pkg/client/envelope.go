package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the server's `{message?, data, meta?}` response shape. Older
// revisions of the API returned payloads at the top level, so unwrap accepts
// both.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
}

func unwrap[T any](body []byte) (T, *Meta, error) {
	var out T

	if len(body) == 0 {
		return out, nil, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, nil, fmt.Errorf("malformed response payload: %w", err)
		}
		return out, env.Meta, nil
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, nil, fmt.Errorf("malformed response payload: %w", err)
	}

	return out, nil, nil
}

// APIError is a failed call, classified by the server's status code. All
// kinds are recoverable: the caller re-fetches and re-renders instead of
// blindly retrying the same payload.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}

	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) Forbidden() bool    { return e.StatusCode == http.StatusForbidden }
func (e *APIError) NotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) Conflict() bool     { return e.StatusCode == http.StatusConflict }
func (e *APIError) Validation() bool   { return e.StatusCode == http.StatusBadRequest }

// Transient reports whether a manual retry is reasonable. Automatic retry is
// deliberately not offered - remind is not idempotent.
func (e *APIError) Transient() bool { return e.StatusCode >= 500 }
