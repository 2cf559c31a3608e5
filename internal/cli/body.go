package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadBody returns the request body from inline JSON or a YAML/JSON file, or nil.
func loadBody(inline, path string) (any, error) {
	if strings.TrimSpace(inline) != "" {
		var body any
		if err := json.Unmarshal([]byte(inline), &body); err != nil {
			return nil, fmt.Errorf("decode --data: %w", err)
		}
		return body, nil
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read body file: %w", err)
	}
	return parseBody(raw, filepath.Ext(path))
}

// parseBody decodes data by extension, trying every known format when the extension is unknown.
func parseBody(data []byte, ext string) (any, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if ext == d.ext {
			known = true
		}
	}

	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var body any
		if err := d.fn(data, &body); err == nil {
			return body, nil
		}
	}

	return nil, errors.New("body file format not recognized (expected YAML or JSON)")
}
