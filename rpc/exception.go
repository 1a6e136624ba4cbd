package rpc

import (
	"fmt"
	"reflect"
	"strings"
)

// ExceptionHandler encodes any error as {"type", "message", "traceback"}.
// Decoding always produces a *RemoteError.
//
// The type name comes from an ErrorType() string method when the error has
// one, otherwise from its Go type. A Traceback() string method supplies the
// traceback; an empty traceback is omitted from the dictionary.
type ExceptionHandler struct{}

var _ TypeHandler = ExceptionHandler{}

func (ExceptionHandler) Tag() string { return "exception" }

func (ExceptionHandler) Handles(v any) bool {
	_, ok := v.(error)
	return ok
}

func (ExceptionHandler) ToJSON(v any, _ EncodeFunc) (map[string]any, error) {
	remote, err := toRemoteError(v.(error))
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"type":    remote.Type,
		"message": remote.Message,
	}
	if remote.Traceback != "" {
		out["traceback"] = remote.Traceback
	}
	return out, nil
}

func (ExceptionHandler) FromJSON(fields map[string]any, _ DecodeFunc) (any, error) {
	typ, err := stringField(fields, "type")
	if err != nil {
		return nil, err
	}
	message, err := stringField(fields, "message")
	if err != nil {
		return nil, err
	}
	traceback, err := stringField(fields, "traceback")
	if err != nil {
		return nil, err
	}
	return &RemoteError{Type: typ, Message: message, Traceback: traceback}, nil
}

// toRemoteError refuses a nil pointer stored in a non-nil error, since its
// methods would run on a nil receiver.
func toRemoteError(err error) (*RemoteError, error) {
	if rv := reflect.ValueOf(err); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, fmt.Errorf("nil %T error value", err)
	}
	if remote, ok := err.(*RemoteError); ok {
		return remote, nil
	}
	remote := &RemoteError{Message: err.Error()}
	if typed, ok := err.(interface{ ErrorType() string }); ok {
		remote.Type = typed.ErrorType()
	} else {
		remote.Type = strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	}
	if tb, ok := err.(interface{ Traceback() string }); ok {
		remote.Traceback = tb.Traceback()
	}
	return remote, nil
}
