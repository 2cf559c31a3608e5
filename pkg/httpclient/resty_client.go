package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout        = 20 * time.Second
	defaultConnectTimeout = 20 * time.Second
	defaultMaxRedirects   = 3
)

// Options tunes the resty client built by NewRestyClient.
type Options struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// MaxRedirects caps followed redirects; zero means the default, negative disables following.
	MaxRedirects int
	UserAgent    string
	// Transport replaces the default dialing transport when set.
	Transport http.RoundTripper
	// Logger receives resty warnings and, with Debug, request/response dumps.
	Logger resty.Logger
	Debug  bool
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient from opts, filling unset fields with defaults.
func NewRestyClient(opts Options) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(normalizeOptions(opts))}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	opts.UserAgent = strings.TrimSpace(opts.UserAgent)
	return opts
}

// newRestyBaseClient creates a new resty.Client configured from opts.
func newRestyBaseClient(opts Options) *resty.Client {
	c := resty.New()
	// No cookie state is carried between calls.
	c.SetCookieJar(nil)
	c.SetTimeout(opts.Timeout)
	c.SetRedirectPolicy(redirectPolicy(opts.MaxRedirects))
	if opts.Transport != nil {
		c.SetTransport(opts.Transport)
	} else {
		c.SetTransport(newTransport(opts.ConnectTimeout))
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Logger != nil {
		c.SetLogger(opts.Logger)
	}
	c.SetDebug(opts.Debug)
	return c
}

// redirectPolicy stops following after limit hops with ErrTooManyRedirects.
func redirectPolicy(limit int) resty.RedirectPolicy {
	if limit < 0 {
		limit = 0
	}
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, limit)
		}
		return keepMethod(req, via[0])
	})
}

// keepMethod replays the original verb and body on a redirect hop; net/http
// otherwise rewrites POST, PUT and DELETE into a body-less GET on 301/302/303.
func keepMethod(req, orig *http.Request) error {
	if req.Method == orig.Method {
		return nil
	}
	req.Method = orig.Method
	if orig.GetBody == nil {
		return nil
	}
	body, err := orig.GetBody()
	if err != nil {
		return fmt.Errorf("replay body on redirect: %w", err)
	}
	req.Body = body
	req.GetBody = orig.GetBody
	req.ContentLength = orig.ContentLength
	if ct := orig.Header.Get("Content-Type"); ct != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", ct)
	}
	return nil
}

// newTransport clones the default transport with a bounded dial timeout.
func newTransport(connectTimeout time.Duration) *http.Transport {
	var tr *http.Transport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		tr = base.Clone()
	} else {
		tr = &http.Transport{Proxy: http.ProxyFromEnvironment, ForceAttemptHTTP2: true}
	}
	tr.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	tr.TLSHandshakeTimeout = connectTimeout
	return tr
}

// Do performs req and returns the fully read response. Transport failures are
// returned as *Error.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		return nil, fmt.Errorf("request method is empty")
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, newError(method, req.URL, err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
