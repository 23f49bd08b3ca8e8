// Package cli wires configuration, storage and the HTTP server behind cobra commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/waynefred/ocean-journal/internal/config"
	"github.com/waynefred/ocean-journal/internal/logging"
	"github.com/waynefred/ocean-journal/internal/repository"
	"github.com/waynefred/ocean-journal/internal/store"
)

// app is the state shared by every command after PersistentPreRun.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree. Running it without a subcommand serves HTTP.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ocean-journal",
		Short:         "Ocean Journal blog API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.cfg = config.Load()
			a.logger = logging.New(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogJSON)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Write the demo articles if the store is empty",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.seed(cmd)
			},
		},
		newArticlesCmd(a),
		&cobra.Command{
			Use:   "whoami",
			Short: "Print this machine's reader identity",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.whoami(cmd)
			},
		},
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) openStores(ctx context.Context) (*store.Stores, error) {
	if err := a.cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Options{
		Backend:       a.cfg.StoreBackend,
		DataDir:       a.cfg.DataDir,
		DatabaseURL:   a.cfg.DatabaseURL,
		MongoURI:      a.cfg.MongoURI,
		MongoDatabase: a.cfg.MongoDatabase,
		Logger:        a.logger,
	})
}

func (a *app) repositories(stores *store.Stores) (*repository.ArticleRepository, *repository.CommentRepository) {
	opt := repository.WithLogger(a.logger)
	return repository.NewArticleRepository(stores.Articles, opt), repository.NewCommentRepository(stores.Comments, opt)
}

func (a *app) seed(cmd *cobra.Command) error {
	stores, err := a.openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	articles, _ := a.repositories(stores)
	n, err := articles.SeedIfEmpty(cmd.Context())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "store already has articles, nothing seeded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d articles\n", n)
	return nil
}

// identityPath keeps the CLI identity apart from the article store so both
// can be open at once.
func (a *app) identityPath() string {
	return filepath.Join(a.cfg.DataDir, "identity")
}
