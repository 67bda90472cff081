package service

import (
	"errors"
)

// Client-facing messages produced by the service itself.
const (
	MsgUnsupportedLanguage = "Unsupported language"
	MsgCannotSuggest       = "Cannot generate suggestion"
	MsgNegativeGames       = "Games played cannot decrease"
)

// Sentinel kinds. Every *ClientError unwraps to exactly one of these.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// ClientError is a rejected request. Msg is safe to show to the caller.
type ClientError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *ClientError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Msg {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ClientError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func clientError(kind error, msg string, cause error) *ClientError {
	return &ClientError{Kind: kind, Msg: msg, Err: cause}
}
