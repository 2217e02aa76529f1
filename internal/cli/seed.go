package cli

import (
	"fmt"

	"backend-yatube/internal/seed"

	"github.com/spf13/cobra"
)

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var so seed.Options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Deps.LoadConfig()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}
			q, closeFn, err := opts.Deps.ConnectPostgres(cfg)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer closeFn()

			res, err := seed.NewFactory(q, so).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d groups=%d posts=%d comments=%d follows=%d\n",
				res.Users, res.Groups, res.Posts, res.Comments, res.Follows)
			return nil
		},
	}

	cmd.Flags().IntVar(&so.Users, "users", 5, "number of users")
	cmd.Flags().IntVar(&so.Groups, "groups", 3, "number of groups")
	cmd.Flags().IntVar(&so.PostsPerUser, "posts", 13, "posts per user")
	cmd.Flags().IntVar(&so.CommentsPerPost, "comments", 2, "comments per post")
	cmd.Flags().Int64Var(&so.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVar(&so.Password, "password", "password", "password for every seeded user")

	return cmd
}
