package httpclient

import (
	"context"
	"net/http"
)

// Request describes a single outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is sent as-is when non-nil.
	Body []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// NewStaticResponse returns a Response backed by fixed values, for fakes and tests.
func NewStaticResponse(status int, body []byte, header http.Header) Response {
	if header == nil {
		header = http.Header{}
	}
	return staticResponse{status: status, body: body, header: header}
}

type staticResponse struct {
	status int
	body   []byte
	header http.Header
}

func (s staticResponse) Body() []byte        { return s.body }
func (s staticResponse) StatusCode() int     { return s.status }
func (s staticResponse) Header() http.Header { return s.header }
