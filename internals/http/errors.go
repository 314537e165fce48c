package http

import (
	"errors"
	"fmt"
)

const GenericFailureMessage = "request failed"

// ErrUnauthorized is returned for every 401 response. The stored credential
// has already been cleared when a caller sees it.
var ErrUnauthorized = errors.New("unauthorized access")

// RequestError is a non-2xx response whose body was valid json.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// TransportError covers network failures, unparsable bodies and responses
// that do not match the expected shape.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", GenericFailureMessage, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
