package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Transport error codes.
const (
	CodeTimeout           = "timeout"
	CodeCanceled          = "canceled"
	CodeDNS               = "dns"
	CodeConnectionRefused = "connection_refused"
	CodeConnectionReset   = "connection_reset"
	CodeTLS               = "tls"
	CodeRedirect          = "redirect"
	CodeUnknown           = "unknown"
)

// ErrTooManyRedirects is reported when a response chain exceeds the redirect limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// Error is returned when a request could not complete at the transport level.
type Error struct {
	Method string
	URL    string
	Code   string
	Err    error
}

func newError(method, url string, err error) *Error {
	return &Error{Method: method, URL: url, Code: Classify(err), Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a transport failure onto one of the Code* constants.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var (
		dnsErr     *net.DNSError
		netErr     net.Error
		certErr    *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)

	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return CodeRedirect
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.As(err, &dnsErr):
		return CodeDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		return CodeConnectionReset
	case errors.As(err, &certErr), errors.As(err, &recordErr),
		errors.As(err, &authErr), errors.As(err, &hostErr), errors.As(err, &invalidErr):
		return CodeTLS
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimeout
	default:
		return CodeUnknown
	}
}
