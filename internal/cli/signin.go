package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (s *session) cmdSignIn() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and save the access token for later commands",
		Long: `Exchange an email and password for an access token.

Credentials come from --email/--password or BREEZY_EMAIL/BREEZY_PASSWORD.
The token is printed and saved in the session store, so later commands are
authenticated without passing --token.
`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         s.runSignIn,
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	return cmd
}

func (s *session) runSignIn(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if strings.TrimSpace(email) == "" {
		email = s.cfg.Email
	}
	if password == "" {
		password = s.cfg.Password
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("email and password are required")
	}

	token, err := s.client.SignIn(cmd.Context(), email, password)
	if err != nil {
		return s.describeError(err)
	}

	if err := s.store.SaveToken(s.client.BaseURL(), token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.eventLog().InfoObj("signed in", "session", map[string]any{
		"base_url": s.client.BaseURL(),
		"email":    email,
	})

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func (s *session) cmdToken() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect or clear the saved session token",
	}

	showCmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the token used for requests",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !s.client.Authenticated() {
				return errors.New("not signed in")
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.client.Token())
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:          "clear",
		Short:        "Forget the saved token for the current base URL",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.store.DeleteToken(s.client.BaseURL()); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			s.client.SetToken("")
			return nil
		},
	}

	cmd.AddCommand(showCmd, clearCmd)
	return cmd
}

func cmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print breezy CLI version",
		Annotations: map[string]string{annotationNoSession: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(Version)
		},
	}
}
