package cli

import (
	"errors"
	"fmt"

	"backend-yatube/internal/pagecache"

	"github.com/spf13/cobra"
)

func NewCacheCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the page cache",
	}
	cmd.AddCommand(newCacheClearCommand(opts))
	return cmd
}

func newCacheClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached page",
		Long: `Drop every cached page from the shared Redis store.

Servers running without REDIS_ADDR keep their cache in memory; use
POST /admin/cache/clear against them instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Deps.LoadConfig()
			rdb := opts.Deps.ConnectRedis(cfg)
			if rdb == nil {
				return errors.New("REDIS_ADDR is not configured")
			}
			defer rdb.Close()

			pc := pagecache.New(pagecache.NewRedisStore(rdb), cfg.PageCacheTTL)
			if err := pc.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear page cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "page cache cleared")
			return nil
		},
	}
}
