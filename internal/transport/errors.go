// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes transport errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeHTTP
	ErrTypeInvalidReply
	ErrTypeCanceled
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeHTTP:
		return "http"
	case ErrTypeInvalidReply:
		return "invalid_reply"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ClientError is returned by every Client operation that fails.
type ClientError struct {
	Type ErrorType

	// Status is the HTTP status code for ErrTypeHTTP, 0 otherwise.
	Status int

	// ServerMessage is the "error" field of the response body, when the
	// server sent one.
	ServerMessage string

	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.ServerMessage != "" {
		msg += ": " + e.ServerMessage
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel ClientErrors by type, so errors.Is(err, ErrInvalidReply)
// holds for any invalid-reply error regardless of its message.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// Sentinel errors for errors.Is checks.
var (
	ErrConnection   = &ClientError{Type: ErrTypeConnection}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout}
	ErrHTTP         = &ClientError{Type: ErrTypeHTTP}
	ErrInvalidReply = &ClientError{Type: ErrTypeInvalidReply}
	ErrCanceled     = &ClientError{Type: ErrTypeCanceled}

	// ErrNoSession is returned by session-scoped operations given an empty id.
	ErrNoSession = errors.New("no session id")
)

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// ErrorMessage returns the text shown to the user for a failed operation:
// the server's error field when present, else the error itself.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) && ce.ServerMessage != "" {
		return ce.ServerMessage
	}
	return err.Error()
}

// requestError classifies a failure that happened before any response.
func requestError(op string, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return &ClientError{Type: ErrTypeTimeout, Message: op + " timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeCanceled, Message: op + " canceled", Cause: err}
	default:
		return &ClientError{Type: ErrTypeConnection, Message: op + " failed", Cause: err}
	}
}

// statusError builds the error for a non-2xx response.
func statusError(op string, status int, serverMsg string) error {
	return &ClientError{
		Type:          ErrTypeHTTP,
		Status:        status,
		ServerMessage: serverMsg,
		Message:       fmt.Sprintf("%s: %d %s", op, status, http.StatusText(status)),
	}
}

func invalidReply(op, reason string) error {
	return &ClientError{Type: ErrTypeInvalidReply, Message: op + ": invalid reply: " + reason}
}
