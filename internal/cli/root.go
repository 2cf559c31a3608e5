// Package cli provides the breezy command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/breezy/internal/config"
	"github.com/samvad-hq/breezy/internal/logger"
	"github.com/samvad-hq/breezy/internal/storage"
	"github.com/samvad-hq/breezy/pkg/breezy"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// Environment lets callers replace how configuration and the client are built.
type Environment struct {
	LoadConfig    func() (*config.Config, error)
	ClientOptions []breezy.Option
	// Logger receives CLI events; defaults to the zap logger built from config.
	Logger logger.Logger
}

// session is the per-invocation state shared by subcommands.
type session struct {
	env    Environment
	cfg    *config.Config
	log    logger.Logger
	store  storage.Store
	client *breezy.Client
}

// Execute runs the root command with the default environment.
func Execute(ctx context.Context, args []string) error {
	cmd, s := newRootCommand(Environment{})
	defer s.close()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. The returned cleanup releases the
// session store and flushes logs.
func NewRootCommand(env Environment) (*cobra.Command, func()) {
	cmd, s := newRootCommand(env)
	return cmd, s.close
}

func newRootCommand(env Environment) (*cobra.Command, *session) {
	if env.LoadConfig == nil {
		env.LoadConfig = config.Load
	}
	s := &session{env: env}

	rootCmd := &cobra.Command{
		Use:               "breezy",
		Short:             "breezy calls the Breezy HR public API",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.prerun,
	}

	rootCmd.PersistentFlags().String("base-url", "", "API base URL (overrides BREEZY_BASE_URL)")
	rootCmd.PersistentFlags().String("token", "", "access token (overrides BREEZY_TOKEN and the saved session)")
	rootCmd.PersistentFlags().StringP("output", "o", outputJSON, "output format: json or yaml")
	rootCmd.PersistentFlags().Bool("debug", false, "dump HTTP requests and responses to the log")

	rootCmd.AddCommand(s.cmdSignIn())
	rootCmd.AddCommand(s.cmdGet(), s.cmdDelete(), s.cmdPost(), s.cmdPut())
	rootCmd.AddCommand(s.cmdToken())
	rootCmd.AddCommand(cmdVersion())

	return rootCmd, s
}

func (s *session) prerun(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoSession] == "true" {
		return nil
	}

	cfg, err := s.env.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}
	s.cfg = cfg

	sugar, err := logger.InitWriter(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	s.log = s.env.Logger
	if s.log == nil {
		s.log = logger.Zap{}
	}
	s.log.DebugObj("breezy cli starting", "config", cfg.Redacted())

	store, err := storage.NewStore(cfg.SessionStore, cfg.SessionPath, storage.Options{TokenTTL: cfg.SessionTTL})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	s.store = store

	opts := []breezy.Option{
		breezy.WithBaseURL(cfg.BaseURL),
		breezy.WithTimeout(cfg.Timeout),
		breezy.WithLogger(sugar),
		breezy.WithDebug(cfg.Debug),
	}
	opts = append(opts, s.env.ClientOptions...)

	client, err := breezy.New(opts...)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		saved, ok, err := store.Token(client.BaseURL())
		if err != nil {
			s.log.WarnObj("failed to read saved session", "error", err.Error())
		} else if ok {
			token = saved
		}
	}
	if token != "" {
		client.SetToken(token)
	}
	s.client = client
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if v, err := flags.GetString("base-url"); err == nil && strings.TrimSpace(v) != "" {
		cfg.BaseURL = v
	}
	if v, err := flags.GetString("token"); err == nil && strings.TrimSpace(v) != "" {
		cfg.Token = v
	}
	if v, err := flags.GetBool("debug"); err == nil && v {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	format, err := flags.GetString("output")
	if err != nil {
		return err
	}
	if _, err := formatterFor(format); err != nil {
		return err
	}
	return nil
}

func (s *session) close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.eventLog().WarnObj("failed to close session store", "error", err.Error())
		}
		s.store = nil
	}
	_ = logger.Close()
}

// eventLog returns the session logger, discarding output before prerun has run.
func (s *session) eventLog() logger.Logger {
	if s.log == nil {
		return logger.NopLogger{}
	}
	return s.log
}

// describeError logs API and transport failures with their codes.
func (s *session) describeError(err error) error {
	var aErr *breezy.APIError
	if errors.As(err, &aErr) {
		s.eventLog().ErrorObj("breezy api error", "breezy_api_error", map[string]any{
			"status":  aErr.StatusCode,
			"message": aErr.Message,
		})
		return err
	}
	var tErr *breezy.TransportError
	if errors.As(err, &tErr) {
		s.eventLog().ErrorObj("breezy transport error", "breezy_transport_error", map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
		})
	}
	return err
}
