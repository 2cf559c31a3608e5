package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type formatter func(w io.Writer, raw []byte) error

func formatterFor(name string) (formatter, error) {
	switch name {
	case outputJSON, "":
		return writeJSON, nil
	case outputYAML, "yml":
		return writeYAML, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (expected json or yaml)", name)
	}
}

func (s *session) render(cmd *cobra.Command, raw []byte) error {
	name, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	f, err := formatterFor(name)
	if err != nil {
		return err
	}
	return f(cmd.OutOrStdout(), raw)
}

// writeJSON indents JSON bodies and passes anything else through unchanged.
func writeJSON(w io.Writer, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func writeYAML(w io.Writer, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("response is not JSON, cannot render yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlValue(v)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// yamlValue turns json.Number leaves into int64 or float64 so integers
// render without exponent notation.
func yamlValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = yamlValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = yamlValue(e)
		}
		return t
	default:
		return v
	}
}
