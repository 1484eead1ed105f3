package httpclient

import (
	"errors"
	"fmt"
)

// Client errors.
//
// Design decision: Non-2xx responses are reported as *StatusError so callers
// can inspect the code, while errors.Is(err, ErrUnexpectedStatus) still
// works for the common "did the request succeed" check.
var (
	// ErrUnexpectedStatus is matched by every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is
	// not in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrBodyTooLarge is returned when a response exceeds the body limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d", e.Method, e.URL, e.StatusCode)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) true.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
