package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

func newRandomCommand(s *session) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(func(env *Env) error {
				quote, err := env.Book.RandomQuote(cmd.Context(), category)
				if domain.IsNotFound(err) {
					return s.out.RenderEmpty(app.MsgNoQuotes)
				}

				if err != nil {
					return err
				}

				return s.out.Render(quote)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", `category to pick from, "all" for any (default: last used)`)

	return cmd
}

func newAddCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add TEXT CATEGORY",
		Short: "Add a quote to the collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(func(env *Env) error {
				quote, err := env.Book.Add(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}

				return s.out.Render(quote)
			})
		},
	}
}

func newListCommand(s *session) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return s.run(func(env *Env) error {
				quotes := env.Book.FilterBy(category)
				if len(quotes) == 0 {
					return s.out.RenderEmpty(app.MsgNoQuotes)
				}

				return s.out.Render(quotes...)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", domain.CategoryAll, "category to list")

	return cmd
}

func newCategoriesCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the category filter options",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return s.run(func(env *Env) error {
				return s.out.RenderList(env.Book.Categories())
			})
		},
	}
}

func newExportCommand(s *session) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(func(env *Env) error {
				if out == "" || out == "-" {
					return env.Book.Export(cmd.OutOrStdout())
				}

				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}

				if err := env.Book.Export(f); err != nil {
					_ = f.Close()
					return err
				}

				return f.Close()
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")

	return cmd
}

func newImportCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: `Append the quotes of a JSON array file, "-" for stdin`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(func(env *Env) error {
				var r io.Reader = cmd.InOrStdin()

				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return fmt.Errorf("opening import file: %w", err)
					}
					defer f.Close()

					r = f
				}

				n, err := env.Book.Import(cmd.Context(), r)
				if err != nil {
					return err
				}

				return s.out.RenderEmpty(fmt.Sprintf("Imported %d quote(s).", n))
			})
		},
	}
}

func newSyncCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the quote server once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.run(func(env *Env) error {
				// The notifier already printed the outcome.
				_, err := env.Sync.SyncNow(cmd.Context())

				return err
			})
		},
	}
}
