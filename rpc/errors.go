package rpc

import (
	"errors"
	"fmt"
)

// Serialization errors. A *SerializationError always wraps exactly one of
// these, so callers branch with errors.Is.
var (
	ErrNoHandler         = errors.New("no handler for value")
	ErrUnknownTag        = errors.New("unknown type tag")
	ErrUnrecognizedShape = errors.New("unrecognized JSON shape")
	ErrHandlerFailed     = errors.New("type handler failed")
	ErrReservedKey       = errors.New("record uses reserved key " + TypeKey)
	ErrCodec             = errors.New("codec failure")
)

// ErrBodyTooLarge is returned when a request or response body exceeds the
// configured size limit.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// SerializationError is a local encode or decode failure. It is never retried.
type SerializationError struct {
	// Op is "encode" or "decode".
	Op string
	// Tag is the type tag involved, if any.
	Tag string
	// Value describes the offending value (its Go type on encode).
	Value string
	Err   error
}

func (e *SerializationError) Error() string {
	msg := "sjoh: " + e.Op
	if e.Tag != "" {
		msg += fmt.Sprintf(" %q", e.Tag)
	}
	if e.Value != "" {
		msg += " " + e.Value
	}
	return msg + ": " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// RemoteError is an error raised on the far side of a call, rebuilt from
// its serialized form. The original error class is not reconstructed; use
// Type to branch on it.
type RemoteError struct {
	Type      string
	Message   string
	Traceback string
}

func NewRemoteError(typ, message string) *RemoteError {
	return &RemoteError{Type: typ, Message: message}
}

func (e *RemoteError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return e.Type + ": " + e.Message
}

func (e *RemoteError) ErrorType() string {
	return e.Type
}

// CommunicationError means the call never reached application logic, or its
// answer could not be understood: a transport failure, an unexpected status
// code, or an undecodable body.
type CommunicationError struct {
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *CommunicationError) Error() string {
	msg := "communication error"
	if e.URL != "" {
		msg += " calling " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is a *RemoteError with the given type.
// An empty typ matches any remote error.
func IsRemoteError(err error, typ string) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return typ == "" || remoteErr.Type == typ
	}
	return false
}
