// Package cli implements the quotes command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/render"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Env is what a command runs against.
type Env struct {
	Book *app.QuoteBook
	Sync *app.SyncEngine
}

// Opener builds an Env. The returned close func flushes pending pushes
// and releases the store.
type Opener func(ctx context.Context, profile string, notifier ports.Notifier) (*Env, func() error, error)

// OpenFromConfig loads the profile's configuration and wires the same
// store and quote server as the service. Logs go to stderr.
func OpenFromConfig(ctx context.Context, profile string, notifier ports.Notifier) (*Env, func() error, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  "pretty",
		Service: cfg.App.Name,
		Version: cfg.App.Version,
	}, os.Stderr)
	logging.SetDefault(logger)

	deps, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{Notifier: notifier})
	if err != nil {
		return nil, nil, err
	}

	return &Env{Book: deps.Book, Sync: deps.Sync}, deps.Close, nil
}

// session is shared by the subcommands of one invocation.
type session struct {
	open    Opener
	profile string
	out     *render.Terminal

	env     *Env
	closeFn func() error
}

// terminalNotifier prints sync messages as they would appear in a UI.
type terminalNotifier struct {
	out ports.Renderer
}

func (n terminalNotifier) Notify(message string) {
	_ = n.out.RenderEmpty(message)
}

// NewRootCommand builds the quotes command tree writing to out.
func NewRootCommand(open Opener, out io.Writer) *cobra.Command {
	s := &session{
		open: open,
		out:  render.NewTerminal(out, render.DefaultTheme),
	}

	root := &cobra.Command{
		Use:           "quotes",
		Short:         "Browse, add and sync quotes",
		Long:          `quotes manages a local quote collection and keeps it in sync with a remote quote server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env, closeFn, err := s.open(cmd.Context(), s.profile, terminalNotifier{out: s.out})
			if err != nil {
				return err
			}

			s.env, s.closeFn = env, closeFn

			return nil
		},
	}

	root.SetOut(out)
	root.PersistentFlags().StringVar(&s.profile, "profile", envOr("APP_ENVIRONMENT", "local"), "configuration profile")

	root.AddCommand(
		newRandomCommand(s),
		newAddCommand(s),
		newListCommand(s),
		newCategoriesCommand(s),
		newExportCommand(s),
		newImportCommand(s),
		newSyncCommand(s),
	)

	return root
}

// run executes fn against the opened env and closes it afterwards, also
// when fn fails.
func (s *session) run(fn func(*Env) error) error {
	err := fn(s.env)

	if s.closeFn != nil {
		closeFn := s.closeFn
		s.closeFn = nil

		err = errors.Join(err, closeFn())
	}

	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
