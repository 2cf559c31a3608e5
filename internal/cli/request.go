package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/breezy/pkg/breezy"
)

const annotationNoSession = "breezy/no-session"

func (s *session) cmdGet() *cobra.Command {
	return s.verbCommand(http.MethodGet, "get <path>", "Perform a GET request", false)
}

func (s *session) cmdDelete() *cobra.Command {
	return s.verbCommand(http.MethodDelete, "delete <path>", "Perform a DELETE request", false)
}

func (s *session) cmdPost() *cobra.Command {
	return s.verbCommand(http.MethodPost, "post <path>", "Perform a POST request with a JSON body", true)
}

func (s *session) cmdPut() *cobra.Command {
	return s.verbCommand(http.MethodPut, "put <path>", "Perform a PUT request with a JSON body", true)
}

func (s *session) verbCommand(method, use, short string, withBody bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The path is joined to the API base URL, for example:

	$ breezy ` + strings.ToLower(method) + ` company/abc123/positions -q state=published
`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runRequest(cmd, method, args[0], withBody)
		},
	}
	cmd.Flags().StringArrayP("query", "q", nil, "query parameter as key=value (repeatable)")
	if withBody {
		cmd.Flags().StringP("data", "d", "", "inline JSON request body")
		cmd.Flags().StringP("data-file", "f", "", "request body file (.json, .yaml or .yml)")
		cmd.MarkFlagsMutuallyExclusive("data", "data-file")
	}
	return cmd
}

func (s *session) runRequest(cmd *cobra.Command, method, path string, withBody bool) error {
	rawQuery, err := cmd.Flags().GetStringArray("query")
	if err != nil {
		return err
	}
	query, err := parseQuery(rawQuery)
	if err != nil {
		return err
	}

	req := breezy.Request{Method: method, Path: path, Query: query}
	if withBody {
		inline, _ := cmd.Flags().GetString("data")
		file, _ := cmd.Flags().GetString("data-file")
		body, err := loadBody(inline, file)
		if err != nil {
			return err
		}
		if body == nil {
			body = map[string]any{}
		}
		req.Body = body
	}

	resp, err := s.client.Do(cmd.Context(), req)
	if err != nil {
		return s.describeError(err)
	}
	return s.render(cmd, resp.Raw)
}

// parseQuery turns key=value pairs into query parameters. Repeated keys become lists.
func parseQuery(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q (expected key=value)", pair)
		}
		switch prev := out[key].(type) {
		case nil:
			out[key] = value
		case string:
			out[key] = []string{prev, value}
		case []string:
			out[key] = append(prev, value)
		}
	}
	return out, nil
}
