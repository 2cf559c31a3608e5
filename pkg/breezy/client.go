// Package breezy is a thin client for the Breezy HR public REST API.
//
// A Client builds the request URL from its base URL and a trimmed path, sends
// an optional JSON body, attaches the stored token verbatim in the
// Authorization header, and decodes the JSON reply. Failures are reported as
// *TransportError when no response arrived and *APIError when the server
// answered with status >= 400 or a non-empty "error" field.
package breezy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/samvad-hq/breezy/pkg/httpclient"
)

const (
	// DefaultBaseURL is the Breezy HR v2 public API root.
	DefaultBaseURL = "https://breezy.hr/public/api/v2/"
	// DefaultUserAgent identifies this wrapper to the API.
	DefaultUserAgent = "Breezy Go wrapper (https://github.com/samvad-hq/breezy)"

	signInPath     = "signin"
	accessTokenKey = "access_token"
	errorKey       = "error"
)

// Client talks to the Breezy API. Its methods may be called from several
// goroutines; the last-response accessors then reflect whichever call touched
// them most recently, so concurrent callers should read results from Do.
type Client struct {
	baseURL  string
	httpOpts httpclient.Options
	http     httpclient.Client
	log      Logger

	mu           sync.RWMutex
	token        string
	lastRaw      []byte
	lastResponse map[string]any
}

// New builds a Client against DefaultBaseURL unless overridden by opts.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: DefaultBaseURL,
		log:     noopLogger{},
		httpOpts: httpclient.Options{
			UserAgent: DefaultUserAgent,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(c.httpOpts)
	}
	return c, nil
}

// BaseURL returns the root every request path is joined to.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken stores token for subsequent requests. No validation is done.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the stored token, empty when not signed in.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a token is attached to requests.
func (c *Client) Authenticated() bool { return c.Token() != "" }

// LastResponseRaw returns the raw body of the last successful call, or nil.
func (c *Client) LastResponseRaw() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRaw
}

// LastResponse returns the decoded body of the last successful call, or nil.
func (c *Client) LastResponse() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastResponse
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query map[string]any) (map[string]any, error) {
	return c.data(c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}))
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query map[string]any) (map[string]any, error) {
	return c.data(c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Query: query}))
}

// Post performs a POST request with body encoded as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, path string, body any, query map[string]any) (map[string]any, error) {
	return c.data(c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Body: bodyOrEmpty(body)}))
}

// Put performs a PUT request with body encoded as JSON. A nil body is sent as {}.
func (c *Client) Put(ctx context.Context, path string, body any, query map[string]any) (map[string]any, error) {
	return c.data(c.Do(ctx, Request{Method: http.MethodPut, Path: path, Query: query, Body: bodyOrEmpty(body)}))
}

func (c *Client) data(resp *Response, err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SignIn exchanges credentials for an access token, stores it and returns it.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	data, err := c.Post(ctx, signInPath, map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}

	token, ok := data[accessTokenKey].(string)
	if !ok || token == "" {
		return "", ErrMissingAccessToken
	}

	// Remember token for all consecutive requests.
	c.SetToken(token)
	return token, nil
}

// Do executes req and returns its own result. The client's last-response
// state is cleared before the call and set only when it succeeds.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	c.resetLast()

	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		return nil, fmt.Errorf("breezy: request method is empty")
	}

	target, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("breezy: encode %s %s body: %w", method, req.Path, err)
		}
		headers["Content-Length"] = strconv.Itoa(len(payload))
	}

	if token := c.Token(); token != "" {
		headers["Authorization"] = token
	}

	c.log.Debugf("breezy request %s %s", method, target)

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    payload,
	})
	if err != nil {
		c.log.Warnf("breezy request %s %s failed: %v", method, target, err)
		return nil, transportError(err)
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Raw:        resp.Body(),
	}
	out.Data = decodeObject(out.Raw)

	if out.StatusCode >= http.StatusBadRequest || !isEmpty(out.Data[errorKey]) {
		return nil, &APIError{
			StatusCode: out.StatusCode,
			Message:    errorMessage(out.Data[errorKey]),
			Body:       out.Raw,
		}
	}

	c.mu.Lock()
	c.lastRaw = out.Raw
	c.lastResponse = out.Data
	c.mu.Unlock()

	return out, nil
}

func (c *Client) resetLast() {
	c.mu.Lock()
	c.lastRaw = nil
	c.lastResponse = nil
	c.mu.Unlock()
}

// buildURL joins the trimmed path to the base URL and appends the encoded query.
func (c *Client) buildURL(path string, query map[string]any) (string, error) {
	target := c.baseURL + strings.Trim(path, "/")
	if len(query) == 0 {
		return target, nil
	}

	values := make(url.Values, len(query))
	for k, v := range query {
		if err := addQueryValue(values, k, v); err != nil {
			return "", err
		}
	}
	return target + "?" + values.Encode(), nil
}

// addQueryValue flattens scalars and slices of scalars into values.
func addQueryValue(values url.Values, key string, v any) error {
	switch val := v.(type) {
	case nil:
		// Null parameters are omitted.
	case string:
		values.Add(key, val)
	case bool:
		if val {
			values.Add(key, "1")
		} else {
			values.Add(key, "0")
		}
	case []string:
		for _, s := range val {
			values.Add(key, s)
		}
	case []any:
		for _, item := range val {
			if err := addQueryValue(values, key, item); err != nil {
				return err
			}
		}
	case fmt.Stringer:
		values.Add(key, val.String())
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		values.Add(key, fmt.Sprint(val))
	default:
		return fmt.Errorf("breezy: unsupported query value %T for %q", v, key)
	}
	return nil
}

func bodyOrEmpty(body any) any {
	if body == nil {
		return map[string]any{}
	}
	return body
}

// decodeObject returns nil unless raw is a JSON object.
func decodeObject(raw []byte) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil || dec.More() {
		return nil
	}
	return out
}
