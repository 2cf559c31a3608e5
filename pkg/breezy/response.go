package breezy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Request describes one API call.
type Request struct {
	Method string
	// Path is joined to the base URL with leading and trailing slashes trimmed.
	Path string
	// Query holds scalar values (or slices of them); nil values are omitted.
	Query map[string]any
	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is the result of a single successful call.
type Response struct {
	StatusCode int
	Header     http.Header
	// Data is the body decoded as a JSON object with numbers kept as json.Number.
	// It is nil when the body is empty or not an object (for example a list).
	Data map[string]any
	Raw  []byte
}

// Decode unmarshals the raw body into v, for list endpoints or typed structs.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Raw)) == 0 {
		return fmt.Errorf("breezy: empty response body")
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("breezy: decode response: %w", err)
	}
	return nil
}

// isEmpty reports whether v counts as an absent "error" field:
// null, "", "0", false, zero numbers and empty arrays or objects.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == "" || val == "0"
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case float64:
		return val == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// errorMessage renders the "error" field as a message.
func errorMessage(v any) string {
	if isEmpty(v) {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if msg, ok := val["message"].(string); ok && msg != "" {
			return msg
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(raw))
}
