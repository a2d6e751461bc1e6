package api

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps network-level failures of an exchange.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded or
	// lacks an access token.
	ErrMalformedResponse = errors.New("malformed response")
)

// RejectedError is returned when the server answers a login or refresh
// exchange with a non-2xx status.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication rejected: status %d", e.StatusCode)
	}
	return fmt.Sprintf("authentication rejected: status %d: %s", e.StatusCode, e.Message)
}

// StatusError is returned by data endpoints for any non-2xx response that
// made it through the authenticated transport.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsRejected reports whether err carries a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
