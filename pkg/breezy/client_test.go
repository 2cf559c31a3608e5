package breezy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestSignInStoresTokenVerbatim(t *testing.T) {
	var gotAuth []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/signin":
			assert.Equal(t, http.MethodPost, r.Method)
			var creds map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, map[string]string{"email": "user@example.com", "password": "pw"}, creds)
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"access_token":"abc123"}`)
		case "/me":
			gotAuth = r.Header.Values("Authorization")
			writeJSON(w, http.StatusOK, `{"email":"user@example.com"}`)
		default:
			http.NotFound(w, r)
		}
	})

	assert.False(t, c.Authenticated())

	token, err := c.SignIn(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, "abc123", c.Token())
	assert.True(t, c.Authenticated())

	me, err := c.Get(context.Background(), "me", nil)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", me["email"])
	assert.Equal(t, []string{"abc123"}, gotAuth)
}

func TestSignInMissingAccessToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":{"id":"u1"}}`)
	})
	c.SetToken("previous")

	token, err := c.SignIn(context.Background(), "user@example.com", "pw")
	require.ErrorIs(t, err, ErrMissingAccessToken)
	assert.Empty(t, token)
	assert.Equal(t, "previous", c.Token())
}

func TestSignInRejectedCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid credentials"}`)
	})

	_, err := c.SignIn(context.Background(), "user@example.com", "bad")
	var aErr *APIError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, http.StatusUnauthorized, aErr.StatusCode)
	assert.Equal(t, "invalid credentials", aErr.Message)
	assert.False(t, c.Authenticated())
}

func TestStatusErrorCarriesMessageAndCode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"not found"}`)
	})

	calls := map[string]func() (map[string]any, error){
		"get":    func() (map[string]any, error) { return c.Get(context.Background(), "missing", nil) },
		"delete": func() (map[string]any, error) { return c.Delete(context.Background(), "missing", nil) },
		"post":   func() (map[string]any, error) { return c.Post(context.Background(), "missing", nil, nil) },
		"put":    func() (map[string]any, error) { return c.Put(context.Background(), "missing", nil, nil) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			data, err := call()
			assert.Nil(t, data)
			var aErr *APIError
			require.ErrorAs(t, err, &aErr)
			assert.Equal(t, "not found", aErr.Message)
			assert.Equal(t, http.StatusNotFound, aErr.StatusCode)
			assert.Equal(t, http.StatusNotFound, StatusCode(err))
			assert.False(t, IsTransportError(err))
		})
	}
}

func TestErrorFieldOverridesSuccessStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":"quota exceeded"}`)
	})

	_, err := c.Get(context.Background(), "positions", nil)
	var aErr *APIError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, "quota exceeded", aErr.Message)
	assert.Equal(t, http.StatusOK, aErr.StatusCode)
	assert.Nil(t, c.LastResponse())
}

func TestEmptyErrorFieldIsSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":"","id":"p1"}`)
	})

	data, err := c.Get(context.Background(), "positions/p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", data["id"])
}

func TestStatusErrorWithoutErrorField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := c.Get(context.Background(), "companies", nil)
	var aErr *APIError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, http.StatusInternalServerError, aErr.StatusCode)
	assert.Empty(t, aErr.Message)
	assert.Equal(t, "<html>oops</html>", string(aErr.Body))
}

func TestQueryParametersAreEncoded(t *testing.T) {
	var uris []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		uris = append(uris, r.URL.RequestURI())
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := c.Get(context.Background(), "items", map[string]any{"page": 2})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "search", map[string]any{"q": "a b&c", "active": true, "skip": nil})
	require.NoError(t, err)

	require.Len(t, uris, 2)
	assert.Equal(t, "/items?page=2", uris[0])
	assert.Equal(t, "/search?active=1&q=a+b%26c", uris[1])
}

func TestUnsupportedQueryValue(t *testing.T) {
	c, err := New(WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "items", map[string]any{"bad": map[string]int{"x": 1}})
	require.Error(t, err)
	assert.False(t, IsTransportError(err))
	assert.False(t, IsAPIError(err))
}

func TestPathIsTrimmed(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := c.Get(context.Background(), "/items/", nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "items", nil)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, paths[0], paths[1])
	assert.Equal(t, "/items", paths[0])
}

func TestPostSendsJSONBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, int64(len(raw)), r.ContentLength)
		assert.JSONEq(t, `{"name":"Engineer","tags":["go"]}`, string(raw))
		assert.Equal(t, "state=draft", r.URL.RawQuery)
		writeJSON(w, http.StatusCreated, `{"_id":"p1","name":"Engineer"}`)
	})

	data, err := c.Post(context.Background(), "company/c1/positions", map[string]any{
		"name": "Engineer",
		"tags": []string{"go"},
	}, map[string]any{"state": "draft"})
	require.NoError(t, err)
	assert.Equal(t, "p1", data["_id"])
}

func TestNilBodyIsSentAsEmptyObject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "{}", string(raw))
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	_, err := c.Put(context.Background(), "company/c1", nil, nil)
	require.NoError(t, err)
}

func TestUserAgentHeader(t *testing.T) {
	var agents []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.UserAgent())
		writeJSON(w, http.StatusOK, `{}`)
	})
	_, err := c.Get(context.Background(), "me", nil)
	require.NoError(t, err)

	custom, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.UserAgent())
		writeJSON(w, http.StatusOK, `{}`)
	}, WithUserAgent("custom-agent"))
	_, err = custom.Get(context.Background(), "me", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultUserAgent, "custom-agent"}, agents)
}

func TestLastResponseMatchesReturnedValue(t *testing.T) {
	const body = `{"_id":"c1","name":"Acme","count":3}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, body)
	})

	assert.Nil(t, c.LastResponse())
	assert.Nil(t, c.LastResponseRaw())

	data, err := c.Get(context.Background(), "company/c1", nil)
	require.NoError(t, err)
	assert.Equal(t, data, c.LastResponse())
	assert.Equal(t, body, string(c.LastResponseRaw()))
	assert.Equal(t, json.Number("3"), data["count"])
}

func TestLastResponseClearedOnFailure(t *testing.T) {
	fail := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if fail {
			writeJSON(w, http.StatusBadRequest, `{"error":"bad"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	_, err := c.Get(context.Background(), "ok", nil)
	require.NoError(t, err)
	require.NotNil(t, c.LastResponse())

	fail = true
	_, err = c.Get(context.Background(), "bad", nil)
	require.Error(t, err)
	assert.Nil(t, c.LastResponse())
	assert.Nil(t, c.LastResponseRaw())
}

func TestLastResponseClearedBeforeNetworkCall(t *testing.T) {
	var c *Client
	var seenDuringCall map[string]any
	seen := false
	c, _ = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if seen {
			seenDuringCall = c.LastResponse()
		}
		seen = true
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	_, err := c.Get(context.Background(), "first", nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "second", nil)
	require.NoError(t, err)
	assert.Nil(t, seenDuringCall)
}

func TestTransportErrorIsDistinct(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c, err := New(WithBaseURL("http://" + addr))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "me", nil)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "connection_refused", tErr.Code)
	assert.NotEmpty(t, tErr.Message)
	assert.False(t, IsAPIError(err))
	assert.Zero(t, StatusCode(err))
	assert.Nil(t, c.LastResponse())
}

func TestCanceledContextIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "me", nil)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "canceled", tErr.Code)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDoReturnsListBodies(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[{"_id":"c1"},{"_id":"c2"}]`)
	})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "companies"})
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var companies []struct {
		ID string `json:"_id"`
	}
	require.NoError(t, resp.Decode(&companies))
	require.Len(t, companies, 2)
	assert.Equal(t, "c2", companies[1].ID)
	assert.Equal(t, `[{"_id":"c1"},{"_id":"c2"}]`, string(c.LastResponseRaw()))
}

func TestUndecodableBodyIsNotFatal(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	data, err := c.Delete(context.Background(), "position/p1", nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}
