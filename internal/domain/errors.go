// Package domain holds the error taxonomy shared by the solrdex SDK and its
// executor. The root package re-exports the sentinels for callers.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport signals a connection, timeout or IO failure that the
	// server never observed.
	ErrTransport = errors.New("transport failure")
	// ErrDecode signals a response body that is not valid JSON or lacks the
	// expected shape.
	ErrDecode = errors.New("malformed response")
	// ErrServer signals a failure reported inside the response envelope.
	ErrServer = errors.New("server error")
	// ErrUsage signals misuse detectable without I/O: a builder reused after
	// commit, a missing required parameter, a malformed payload.
	ErrUsage = errors.New("usage error")
	// ErrNotFound signals a missing collection.
	ErrNotFound = errors.New("not found")
)

// Fault is Solr's error object as it appears inside the envelope.
type Fault struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
}

// ServerError wraps ErrServer with the server's verbatim code and message.
type ServerError struct {
	Code int
	Msg  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", ErrServer.Error(), e.Msg, e.Code)
}

func (e *ServerError) Unwrap() error { return ErrServer }

// NewServerError creates a server error carrying the envelope's detail.
func NewServerError(code int, msg string) error {
	return &ServerError{Code: code, Msg: msg}
}
