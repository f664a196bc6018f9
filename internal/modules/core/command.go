package core

import "fmt"

type Unit struct{}

// CommandError carries the HTTP status a handler error maps to. The status
// codes double as the error taxonomy: 401 unauthorized, 403 forbidden,
// 404 not found, 409 conflict, 400 validation, 5xx transient.
type CommandError struct {
	StatusCode int
	Err        error
	Reason     string
}

func NewCommandError(statusCode int, err error, reason string) CommandError {
	return CommandError{
		StatusCode: statusCode,
		Err:        err,
		Reason:     reason,
	}
}

func (e CommandError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Reason)
	}

	if e.Reason == "" {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Err.Error())
	}

	return fmt.Sprintf("%d: %s: %s", e.StatusCode, e.Reason, e.Err.Error())
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// Message is what ends up in the response envelope - the reason if one was
// given, otherwise the underlying error text.
func (e CommandError) Message() string {
	if e.Reason != "" {
		return e.Reason
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return "request failed"
}
