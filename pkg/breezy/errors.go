package breezy

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/breezy/pkg/httpclient"
)

// ErrMissingAccessToken is returned by SignIn when the response carries no usable access_token.
var ErrMissingAccessToken = errors.New("breezy: sign-in response has no access_token")

// TransportError reports a request that never produced an HTTP response
// (DNS, TLS, timeout, refused connection, redirect limit).
type TransportError struct {
	Code    string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("breezy transport %s: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError reports a completed call the server answered with a failure,
// either an HTTP status >= 400 or a non-empty "error" field.
type APIError struct {
	StatusCode int
	// Message is the "error" field of the response; empty when the field is absent.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("breezy api status %d", e.StatusCode)
	}
	return fmt.Sprintf("breezy api status %d: %s", e.StatusCode, e.Message)
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsAPIError reports whether err is or wraps an *APIError.
func IsAPIError(err error) bool {
	var aErr *APIError
	return errors.As(err, &aErr)
}

// StatusCode returns the HTTP status carried by an *APIError, or 0.
func StatusCode(err error) int {
	var aErr *APIError
	if errors.As(err, &aErr) {
		return aErr.StatusCode
	}
	return 0
}

func transportError(err error) error {
	var hErr *httpclient.Error
	if errors.As(err, &hErr) {
		return &TransportError{Code: hErr.Code, Message: hErr.Err.Error(), Err: err}
	}
	return &TransportError{Code: httpclient.Classify(err), Message: err.Error(), Err: err}
}
