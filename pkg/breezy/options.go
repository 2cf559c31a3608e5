package breezy

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/breezy/pkg/httpclient"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithBaseURL overrides DefaultBaseURL. A trailing slash is added when missing.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		raw = strings.TrimSpace(raw)
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url %q must be absolute", raw)
		}
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		c.baseURL = raw
		return nil
	}
}

// WithToken presets the token, as if SetToken had been called.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithTimeout bounds the total time spent on a single request, redirects included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be > 0")
		}
		c.httpOpts.Timeout = d
		return nil
	}
}

// WithConnectTimeout bounds dialing and the TLS handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("connect timeout must be > 0")
		}
		c.httpOpts.ConnectTimeout = d
		return nil
	}
}

// WithMaxRedirects sets how many redirects are followed. Zero disables following.
func WithMaxRedirects(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("max redirects must be >= 0")
		}
		if n == 0 {
			// httpclient treats zero as "use the default".
			n = -1
		}
		c.httpOpts.MaxRedirects = n
		return nil
	}
}

// WithUserAgent replaces DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(ua) == "" {
			return fmt.Errorf("user agent must not be empty")
		}
		c.httpOpts.UserAgent = ua
		return nil
	}
}

// WithTransport swaps the underlying round tripper, mainly for tests and proxies.
// The connect timeout does not apply to a custom transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) error {
		c.httpOpts.Transport = rt
		return nil
	}
}

// WithLogger routes client and transport logs to log.
func WithLogger(log Logger) Option {
	return func(c *Client) error {
		c.log = ensureLogger(log)
		c.httpOpts.Logger = c.log
		return nil
	}
}

// WithDebug dumps every request and response through the configured logger.
// Dumps include the Authorization header.
func WithDebug(enabled bool) Option {
	return func(c *Client) error {
		c.httpOpts.Debug = enabled
		return nil
	}
}

// WithHTTPClient replaces the resty-backed transport entirely. Timeout,
// redirect, transport and debug options are ignored when it is set.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = hc
		return nil
	}
}
