// Package cli implements yatubectl, the operator command line for the
// yatube backend.
package cli

import (
	"backend-yatube/internal/config"
	"backend-yatube/internal/db"
	"backend-yatube/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Deps are the connections a command may open. Tests replace them.
type Deps struct {
	LoadConfig      func() config.Config
	ConnectPostgres func(config.Config) (db.Querier, func(), error)
	ConnectRedis    func(config.Config) *redis.Client
}

func DefaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		ConnectPostgres: func(cfg config.Config) (db.Querier, func(), error) {
			pool, err := db.ConnectPostgres(cfg)
			if err != nil {
				return nil, nil, err
			}
			return pool, pool.Close, nil
		},
		ConnectRedis: db.ConnectRedis,
	}
}

type RootOptions struct {
	Verbose bool
	Deps    Deps
}

// NewRootCommand creates the root command for yatubectl.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(DefaultDeps())
}

func NewRootCommandWith(deps Deps) *cobra.Command {
	opts := &RootOptions{Deps: deps}

	cmd := &cobra.Command{
		Use:   "yatubectl",
		Short: "Operator tooling for the yatube backend",
		Long: `yatubectl manages the yatube database and caches.

It applies the schema, fills a development database with fake content
and clears the shared page cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if opts.Verbose {
				level = "debug"
			}
			observability.Logger = observability.NewLogger(cmd.ErrOrStderr(), "development", level)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}
